// Package metrics names the service's prometheus metrics and registers them
// on a pkg/metrics collector.
package metrics

import "github.com/haguru/notedly/internal/interfaces"

const (
	GraphQLRequests        = "graphql_requests_total"
	GraphQLErrors          = "graphql_errors_total"
	GraphQLRequestDuration = "graphql_request_duration_seconds"
	GraphQLInFlight        = "graphql_requests_in_flight"

	SignUps             = "signups_total"
	SignIns             = "signins_total"
	NotesCreated        = "notes_created_total"
	NotesUpdated        = "notes_updated_total"
	NotesDeleted        = "notes_deleted_total"
	FavoritesToggled    = "favorites_toggled_total"
	RateLimitedRequests = "rate_limited_requests_total"
	RateLimitVisitors   = "rate_limit_visitors"

	// LabelOperation is query, mutation or unknown.
	LabelOperation = "operation"
	// LabelCode is a GraphQL error extension code.
	LabelCode = "code"
	// LabelAction is added or removed.
	LabelAction = "action"
)

var durationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Register adds every service metric to m.
func Register(m interfaces.Metrics) {
	m.RegisterCounterVec(GraphQLRequests, "Total number of GraphQL requests", []string{LabelOperation})
	m.RegisterCounterVec(GraphQLErrors, "Total number of GraphQL errors", []string{LabelCode})
	m.RegisterHistogramVec(GraphQLRequestDuration, "GraphQL request duration in seconds", durationBuckets, []string{LabelOperation})
	m.RegisterGauge(GraphQLInFlight, "Number of GraphQL requests being served")

	m.RegisterCounter(SignUps, "Total number of accounts created")
	m.RegisterCounter(SignIns, "Total number of successful sign-ins")
	m.RegisterCounter(NotesCreated, "Total number of notes created")
	m.RegisterCounter(NotesUpdated, "Total number of notes updated")
	m.RegisterCounter(NotesDeleted, "Total number of notes deleted")
	m.RegisterCounterVec(FavoritesToggled, "Total number of favorite toggles", []string{LabelAction})
	m.RegisterCounter(RateLimitedRequests, "Total number of requests rejected by the rate limiter")
	m.RegisterGauge(RateLimitVisitors, "Number of clients tracked by the in-process rate limiter")
}
