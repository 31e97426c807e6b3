package graphql

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"wallet-session-api/internal/graph"
)

type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

func NewHandler(resolver *graph.Resolver, logger *zap.Logger) http.Handler {
	schema, err := createSchema(resolver)
	if err != nil {
		panic(err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Error parsing request body", http.StatusBadRequest)
			return
		}

		result := executeQuery(r.Context(), schema, req)
		if result.HasErrors() {
			logger.Warn("graphql errors",
				zap.String("operation", req.OperationName),
				zap.Any("errors", result.Errors))
		}
		json.NewEncoder(w).Encode(result)
	})
}

func executeQuery(ctx context.Context, schema graphql.Schema, req GraphQLRequest) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func createSchema(resolver *graph.Resolver) (graphql.Schema, error) {
	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"account": &graphql.Field{
				Type: graphql.String,
			},
			"isSubmitting": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"transactionCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
		},
	})

	formType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TransferForm",
		Fields: graphql.Fields{
			"addressTo": &graphql.Field{
				Type: graphql.String,
			},
			"amount": &graphql.Field{
				Type: graphql.String,
			},
			"keyword": &graphql.Field{
				Type: graphql.String,
			},
			"message": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	transferType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Transfer",
		Fields: graphql.Fields{
			"addressFrom": &graphql.Field{
				Type: graphql.String,
			},
			"addressTo": &graphql.Field{
				Type: graphql.String,
			},
			"timestamp": &graphql.Field{
				Type: graphql.String,
			},
			"amount": &graphql.Field{
				Type: graphql.String,
			},
			"message": &graphql.Field{
				Type: graphql.String,
			},
			"keyword": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	submitResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SubmitResult",
		Fields: graphql.Fields{
			"txHash": &graphql.Field{
				Type: graphql.String,
			},
			"session": &graphql.Field{
				Type: sessionType,
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type: sessionType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.CurrentSession(), nil
				},
			},
			"form": &graphql.Field{
				Type: formType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Form(), nil
				},
			},
			"transfers": &graphql.Field{
				Type: graphql.NewList(transferType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Transfers(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"connect": &graphql.Field{
				Type: sessionType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.Connect(p.Context)
				},
			},
			"setFormField": &graphql.Field{
				Type: formType,
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
					"value": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.String),
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					args := graph.SetFormFieldArgs{
						Name:  p.Args["name"].(string),
						Value: p.Args["value"].(string),
					}
					return resolver.SetFormField(args)
				},
			},
			"submitTransfer": &graphql.Field{
				Type: submitResultType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.SubmitTransfer(p.Context)
				},
			},
			"refreshTransfers": &graphql.Field{
				Type: graphql.NewList(transferType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolver.RefreshTransfers(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}
