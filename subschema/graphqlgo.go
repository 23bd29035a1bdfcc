package subschema

import (
	"context"

	graphqllib "github.com/graphql-go/graphql"
)

// GraphQLGoExecutor adapts a github.com/graphql-go/graphql schema to the
// Executor contract. It exists to demonstrate that Executor is satisfiable
// by a genuine external GraphQL engine, not only by this module's own
// schema/resolver types — a subschema is free to run any engine that can
// answer a document with variables and return data plus errors.
type GraphQLGoExecutor struct {
	Schema graphqllib.Schema
}

var _ Executor = GraphQLGoExecutor{}

func (e GraphQLGoExecutor) Execute(ctx context.Context, req *Request) (*ExecutionResult, <-chan *Patch, error) {
	result := graphqllib.Do(graphqllib.Params{
		Schema:         e.Schema,
		RequestString:  req.Document,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	er := &ExecutionResult{Data: dataToMap(result.Data)}
	for _, gerr := range result.Errors {
		er.Errors = append(er.Errors, &GraphQLError{
			Message: gerr.Message,
			Path:    gerr.Path,
		})
	}
	return er, nil, nil
}

func dataToMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}
