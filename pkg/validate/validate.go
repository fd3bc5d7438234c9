// Package validate provides struct-tag validation for request payloads.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must be present and not zero/empty
//	nullable            if absent or empty, skip the remaining rules
//	email               valid email address
//	date                YYYY-MM-DD or RFC3339
//	integer             whole number
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	gt=N                number > N
//	gte=N               number >= N
//	lt=N                number < N
//	lte=N               number <= N
//	between=min,max     number between min and max (inclusive)
//	in=a,b,c            value must be one of the listed items
//
// Pointers are dereferenced, so optional patch fields can carry rules.
// Numeric rules compare decimal.Decimal values exactly.
//
//	type addLine struct {
//	    ProductID int64           `json:"product_id" validate:"required"`
//	    Quantity  int             `json:"quantity"   validate:"required,gte=1"`
//	    Price     decimal.Decimal `json:"price"      validate:"gt=0"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		rules := splitRules(tag)
		value := rv.Field(i)

		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				if hasRule(rules, "required") {
					errs[name] = fmt.Sprintf("The %s field is required.", name)
				}
				continue
			}
			value = value.Elem()
		}

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v reflect.Value) string {
	raw := fmt.Sprintf("%v", v.Interface())
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "date":
		if _, err := ParseDate(raw); err != nil {
			return fmt.Sprintf("The %s is not a valid date.", field)
		}
	case "integer":
		if !integerRE.MatchString(raw) {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}

	case "min":
		if isNumeric(v) {
			if toDecimal(v).LessThan(mustDecimal(param)) {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if len([]rune(raw)) < int(mustDecimal(param).IntPart()) {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		if isNumeric(v) {
			if toDecimal(v).GreaterThan(mustDecimal(param)) {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		} else if len([]rune(raw)) > int(mustDecimal(param).IntPart()) {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt":
		if !toDecimal(v).GreaterThan(mustDecimal(param)) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if toDecimal(v).LessThan(mustDecimal(param)) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lt":
		if !toDecimal(v).LessThan(mustDecimal(param)) {
			return fmt.Sprintf("The %s must be less than %s.", field, param)
		}
	case "lte":
		if toDecimal(v).GreaterThan(mustDecimal(param)) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		lo, hi, ok := strings.Cut(param, ",")
		if ok {
			d := toDecimal(v)
			if d.LessThan(mustDecimal(lo)) || d.GreaterThan(mustDecimal(hi)) {
				return fmt.Sprintf("The %s must be between %s and %s.", field, lo, hi)
			}
		}
	case "in":
		for _, a := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(a) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}

	return ""
}

var (
	emailRE   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	integerRE = regexp.MustCompile(`^-?\d+$`)
)

// ParseDate accepts RFC3339 timestamps and YYYY-MM-DD dates (local time).
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

func isEmpty(v reflect.Value) bool {
	if v.Type() == decimalType {
		return false // zero is a valid amount
	}
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumeric(v reflect.Value) bool {
	if v.Type() == decimalType {
		return true
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toDecimal(v reflect.Value) decimal.Decimal {
	if v.Type() == decimalType {
		return v.Interface().(decimal.Decimal)
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromUint64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(v.Float())
	}
	d, _ := decimal.NewFromString(fmt.Sprintf("%v", v.Interface()))
	return d
}

func mustDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(strings.TrimSpace(s))
	return d
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

// splitRules splits the tag on commas, keeping the values of in= and
// between= together: "required,in=cash,card,pix" → ["required", "in=cash,card,pix"].
func splitRules(tag string) []string {
	var rules []string
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		n := len(rules)
		if n > 0 && !looksLikeRule(part) && isMultiValue(rules[n-1]) {
			rules[n-1] += "," + part
			continue
		}
		rules = append(rules, part)
	}
	return rules
}

func isMultiValue(rule string) bool {
	return strings.HasPrefix(rule, "in=") || strings.HasPrefix(rule, "between=")
}

func looksLikeRule(s string) bool {
	key, _, _ := strings.Cut(s, "=")
	switch key {
	case "required", "nullable", "email", "date", "integer",
		"min", "max", "gt", "gte", "lt", "lte", "between", "in":
		return true
	}
	return false
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}
