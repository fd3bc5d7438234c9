package controllers

import (
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/mercadobetel/pdv/app/models"
	"github.com/mercadobetel/pdv/app/repositories"
	"github.com/mercadobetel/pdv/app/services"
	gql "github.com/mercadobetel/pdv/pkg/graphql"
)

var (
	productType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":        &graphql.Field{Type: graphql.String},
			"barcode":     &graphql.Field{Type: graphql.String},
			"price":       &graphql.Field{Type: gql.Money},
			"cost":        &graphql.Field{Type: gql.Money},
			"stock":       &graphql.Field{Type: graphql.Int},
			"category":    &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
			"updated_at":  &graphql.Field{Type: graphql.DateTime},
			"margin": &graphql.Field{
				Type: gql.Money,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(models.Product).Margin(), nil
				},
			},
		},
	})

	customerType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Customer",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":       &graphql.Field{Type: graphql.String},
			"email":      &graphql.Field{Type: graphql.String},
			"phone":      &graphql.Field{Type: graphql.String},
			"address":    &graphql.Field{Type: graphql.String},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	saleItemType = graphql.NewObject(graphql.ObjectConfig{
		Name: "SaleItem",
		Fields: graphql.Fields{
			"product_id":   &graphql.Field{Type: graphql.ID},
			"product_name": &graphql.Field{Type: graphql.String},
			"quantity":     &graphql.Field{Type: graphql.Int},
			"unit_price":   &graphql.Field{Type: gql.Money},
			"total_price":  &graphql.Field{Type: gql.Money},
		},
	})

	saleType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Sale",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"customer_id": &graphql.Field{
				Type: graphql.ID,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if id := p.Source.(models.Sale).CustomerID; id != nil {
						return *id, nil
					}
					return nil, nil
				},
			},
			"customer_name":  &graphql.Field{Type: graphql.String},
			"items":          &graphql.Field{Type: graphql.NewList(saleItemType)},
			"total_amount":   &graphql.Field{Type: gql.Money},
			"discount":       &graphql.Field{Type: gql.Money},
			"payment_method": &graphql.Field{Type: graphql.String},
			"amount_paid":    &graphql.Field{Type: gql.Money},
			"change":         &graphql.Field{Type: gql.Money},
			"created_at":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	summaryType = graphql.NewObject(graphql.ObjectConfig{
		Name: "SalesSummary",
		Fields: graphql.Fields{
			"revenue":        &graphql.Field{Type: gql.Money},
			"transactions":   &graphql.Field{Type: graphql.Int},
			"items_sold":     &graphql.Field{Type: graphql.Int},
			"average_ticket": &graphql.Field{Type: gql.Money},
			"total_discount": &graphql.Field{Type: gql.Money},
			"payments": &graphql.Field{Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
				Name: "PaymentStat",
				Fields: graphql.Fields{
					"method": &graphql.Field{Type: graphql.String},
					"count":  &graphql.Field{Type: graphql.Int},
					"amount": &graphql.Field{Type: gql.Money},
				},
			}))},
			"products": &graphql.Field{Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
				Name: "ProductSales",
				Fields: graphql.Fields{
					"product_id": &graphql.Field{Type: graphql.ID},
					"name":       &graphql.Field{Type: graphql.String},
					"quantity":   &graphql.Field{Type: graphql.Int},
					"revenue":    &graphql.Field{Type: gql.Money},
				},
			}))},
			"daily": &graphql.Field{Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
				Name: "DaySales",
				Fields: graphql.Fields{
					"date":         &graphql.Field{Type: graphql.String},
					"transactions": &graphql.Field{Type: graphql.Int},
					"revenue":      &graphql.Field{Type: gql.Money},
				},
			}))},
		},
	})
)

var periodArgs = graphql.FieldConfigArgument{
	"start": &graphql.ArgumentConfig{Type: graphql.String, Description: "RFC3339 or YYYY-MM-DD"},
	"end":   &graphql.ArgumentConfig{Type: graphql.String, Description: "RFC3339 or YYYY-MM-DD"},
}

func argString(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

// NewGraphQLSchema builds the read-only query schema over db.
func NewGraphQLSchema(db *repositories.Database, reports *services.ReportService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"search": &graphql.ArgumentConfig{Type: graphql.String},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if q := argString(p, "search"); q != "" {
						limit, _ := p.Args["limit"].(int)
						return db.SearchProducts(q, limit), nil
					}
					return db.Products(), nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id":      &graphql.ArgumentConfig{Type: graphql.ID},
					"barcode": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var (
						prod models.Product
						err  error
					)
					switch {
					case p.Args["id"] != nil:
						id, perr := gql.ParseID(p.Args["id"])
						if perr != nil {
							return nil, perr
						}
						prod, err = db.Product(id)
					case argString(p, "barcode") != "":
						prod, err = db.ProductByBarcode(argString(p, "barcode"))
					default:
						return nil, errors.New("id or barcode is required")
					}
					if errors.Is(err, models.ErrNotFound) {
						return nil, nil
					}
					return prod, err
				},
			},
			"customers": &graphql.Field{
				Type: graphql.NewList(customerType),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return db.Customers(), nil
				},
			},
			"sales": &graphql.Field{
				Type: graphql.NewList(saleType),
				Args: periodArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					start, end, err := services.ParsePeriod(argString(p, "start"), argString(p, "end"))
					if err != nil {
						return nil, err
					}
					return db.SalesBetween(start, end), nil
				},
			},
			"salesSummary": &graphql.Field{
				Type: summaryType,
				Args: periodArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					start, end, err := services.ParsePeriod(argString(p, "start"), argString(p, "end"))
					if err != nil {
						return nil, err
					}
					return reports.Sales(start, end), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}

// GraphQLController serves POST /api/graphql.
type GraphQLController struct {
	handler http.HandlerFunc
}

func NewGraphQLController(schema graphql.Schema) *GraphQLController {
	return &GraphQLController{handler: gql.Handler(schema)}
}

func (c *GraphQLController) Query(w http.ResponseWriter, r *http.Request) {
	c.handler(w, r)
}
