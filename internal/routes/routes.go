package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/haguru/notedly/internal/apperrors"
	"github.com/haguru/notedly/internal/graph"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/models/dto"
)

const unknownOperation = "unknown"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Route struct {
	Metrics  interfaces.Metrics
	Executor *graph.Executor
	Pinger   Pinger
	Logger   interfaces.Logger
}

// NewRoute creates a new Route instance. pinger may be nil for stores with
// nothing to ping.
func NewRoute(m interfaces.Metrics, executor *graph.Executor, pinger Pinger, logger interfaces.Logger) *Route {
	return &Route{
		Metrics:  m,
		Executor: executor,
		Pinger:   pinger,
		Logger:   logger,
	}
}

// GraphQL serves queries over GET and POST and mutations over POST.
func (r *Route) GraphQL(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	r.Metrics.IncGauge(metrics.GraphQLInFlight)
	defer r.Metrics.DecGauge(metrics.GraphQLInFlight)

	var (
		gqlReq dto.GraphQLRequest
		status int
		err    error
	)
	switch req.Method {
	case http.MethodGet:
		gqlReq, status, err = decodeGet(req)
	case http.MethodPost:
		gqlReq, status, err = decodePost(w, req)
	default:
		r.writeErrors(w, http.StatusMethodNotAllowed, unknownOperation,
			gqlerror.List{graph.NewError(graph.CodeBadRequest, ErrMethodNotAllowed, req.Method)})
		return
	}
	if err != nil {
		r.Logger.Warn("Rejected GraphQL request", "method", req.Method, "error", err)
		r.writeErrors(w, status, unknownOperation, gqlerror.List{graph.NewError(graph.CodeBadRequest, "%s", err.Error())})
		return
	}

	op, errs := r.Executor.Prepare(gqlReq)
	if len(errs) > 0 {
		r.writeErrors(w, http.StatusBadRequest, unknownOperation, errs)
		return
	}
	operation := string(op.Type())

	if req.Method == http.MethodGet && op.Type() == ast.Mutation {
		r.writeErrors(w, http.StatusMethodNotAllowed, operation,
			gqlerror.List{graph.NewError(graph.CodeBadRequest, ErrMutationOverGet)})
		return
	}

	resp := r.Executor.Execute(req.Context(), op)
	r.Metrics.ObserveHistogramVec(metrics.GraphQLRequestDuration, time.Since(start).Seconds(), operation)

	data, err := resp.MarshalData()
	if err != nil {
		r.Logger.Error(ErrFailedToMarshalResponse, "operation", op.Name, "error", err)
		r.writeErrors(w, http.StatusInternalServerError, operation,
			gqlerror.List{graph.NewError(string(apperrors.KindInternal), ErrFailedToMarshalResponse)})
		return
	}
	r.write(w, http.StatusOK, operation, dto.GraphQLResponse{Data: data, Errors: nonEmpty(resp.Errors)}, resp.Errors)
}

func decodeGet(req *http.Request) (dto.GraphQLRequest, int, error) {
	q := req.URL.Query()
	gqlReq := dto.GraphQLRequest{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
	}
	if raw := q.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &gqlReq.Variables); err != nil {
			return gqlReq, http.StatusBadRequest, fmt.Errorf("%s: %w", ErrInvalidVariables, err)
		}
	}
	return gqlReq, http.StatusOK, nil
}

func decodePost(w http.ResponseWriter, req *http.Request) (dto.GraphQLRequest, int, error) {
	var gqlReq dto.GraphQLRequest

	mediaType, _, err := mime.ParseMediaType(req.Header.Get(ContentType))
	if err != nil || mediaType != ContentTypeJson {
		return gqlReq, http.StatusBadRequest, errors.New(ErrInvalidContentType)
	}

	body := http.MaxBytesReader(w, req.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&gqlReq); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return gqlReq, http.StatusRequestEntityTooLarge, errors.New(ErrRequestTooLarge)
		}
		return gqlReq, http.StatusBadRequest, fmt.Errorf("%s: %w", ErrInvalidRequestBody, err)
	}
	return gqlReq, http.StatusOK, nil
}

func nonEmpty(errs gqlerror.List) interface{} {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r *Route) writeErrors(w http.ResponseWriter, status int, operation string, errs gqlerror.List) {
	r.write(w, status, operation, dto.GraphQLResponse{Errors: errs}, errs)
}

func (r *Route) write(w http.ResponseWriter, status int, operation string, resp dto.GraphQLResponse, errs gqlerror.List) {
	r.Metrics.IncCounterVec(metrics.GraphQLRequests, operation)
	for _, err := range errs {
		r.Metrics.IncCounterVec(metrics.GraphQLErrors, graph.Code(err))
	}

	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		r.Logger.Error(ErrFailedToEncodeResponse, "error", err)
	}
}

// Health pings the store and answers 503 when it is unreachable.
func (r *Route) Health(w http.ResponseWriter, req *http.Request) {
	resp := dto.HealthResponse{Status: StatusOK}
	status := http.StatusOK
	if r.Pinger != nil {
		if err := r.Pinger.Ping(req.Context()); err != nil {
			r.Logger.Error("Health check failed", "error", err)
			resp = dto.HealthResponse{Status: StatusUnavailable, Error: err.Error()}
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// Playground serves the GraphQL playground page pointed at graphqlPath.
func Playground(graphqlPath string) http.Handler {
	return playground.Handler(PlaygroundTitle, graphqlPath)
}
