// Package graphql serves read-only GraphQL queries over HTTP.
package graphql

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"

	"github.com/mercadobetel/pdv/pkg/bind"
	"github.com/mercadobetel/pdv/pkg/logger"
)

// NewSchema creates a new GraphQL schema from a provided RootQuery.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Money serialises decimal amounts as exact JSON numbers.
var Money = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Money",
	Description: "Decimal amount in reais, exact to the cent.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case decimal.Decimal:
			return json.Number(v.StringFixed(2))
		case *decimal.Decimal:
			if v == nil {
				return nil
			}
			return json.Number(v.StringFixed(2))
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		d, err := decimal.NewFromString(fmt.Sprint(value))
		if err != nil {
			return nil
		}
		return d
	},
	ParseLiteral: func(lit ast.Value) interface{} {
		switch v := lit.(type) {
		case *ast.IntValue:
			return decimal.RequireFromString(v.Value)
		case *ast.FloatValue:
			return decimal.RequireFromString(v.Value)
		case *ast.StringValue:
			if d, err := decimal.NewFromString(v.Value); err == nil {
				return d
			}
		}
		return nil
	},
})

// ParseID reads an ID argument, which arrives as a string.
func ParseID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case string:
		return strconv.ParseInt(id, 10, 64)
	case int:
		return int64(id), nil
	case int64:
		return id, nil
	}
	return 0, fmt.Errorf("invalid id %v", v)
}

// Request is the POST body of a GraphQL query.
type Request struct {
	Query         string                 `json:"query" validate:"required"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Execute runs one query against schema.
func Execute(r *http.Request, schema graphql.Schema, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
}

// Handler serves POST requests with a JSON {query, variables} body. The
// response is the standard GraphQL {data, errors} document.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		errs, err := bind.JSON(r, &req)
		if err != nil || len(errs) > 0 {
			msg := "query is required"
			if err != nil {
				msg = err.Error()
			}
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"errors": []map[string]string{{"message": msg}},
			})
			return
		}

		res := Execute(r, schema, req)
		if res.HasErrors() {
			logger.WithCtx(r.Context()).Warn("graphql: query failed", "errors", len(res.Errors))
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
