package dto

import "encoding/json"

// GraphQLRequest is the body of a GraphQL HTTP request.
type GraphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse is the body of a GraphQL HTTP response. Data is kept raw so
// field order produced by the executor survives encoding.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors interface{}     `json:"errors,omitempty"`
}

type RateLimitResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
