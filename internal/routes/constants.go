package routes

const (
	// API route constants
	GraphQLRouteAPI    = "/api"
	MetricsRouteAPI    = "/metrics"
	HealthRouteAPI     = "/health"
	PlaygroundRouteAPI = "/{$}" // exact root only

	PlaygroundTitle = "Notedly GraphQL Playground"

	// Content-Type constants
	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"

	// MaxBodyBytes caps GraphQL request bodies.
	MaxBodyBytes = 1 << 20

	// Health statuses
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"

	// Error messages
	ErrMethodNotAllowed        = "method %s not allowed"
	ErrInvalidContentType      = "Content-Type must be application/json"
	ErrInvalidRequestBody      = "invalid request body"
	ErrRequestTooLarge         = "request body too large"
	ErrInvalidVariables        = "variables must be a JSON object"
	ErrMutationOverGet         = "Can only perform a mutation operation from a POST request"
	ErrFailedToEncodeResponse  = "failed to encode response"
	ErrFailedToMarshalResponse = "failed to marshal response data"
)
