package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hookscope/internal/analysis"
	"hookscope/internal/prtimes"
)

// Error codes returned in the error body.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeRateLimited         = "RATE_LIMITED"
	CodeUpstreamError       = "UPSTREAM_ERROR"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	CodeValidation          = "VALIDATION_ERROR"
	CodeCompaniesFetch      = "COMPANIES_FETCH_ERROR"
	CodeStoreDisabled       = "STORE_DISABLED"
	CodeUnexpected          = "UNEXPECTED"
)

const authHint = "PR TIMES stg への認可に失敗しました。VPN/社内Wi-Fiに接続するか、IP許可を依頼してください。"

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Code     string                `json:"code"`
	Message  string                `json:"message"`
	Upstream any                   `json:"upstream,omitempty"`
	Fields   []analysis.FieldError `json:"fields,omitempty"`
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes an error body carrying the request id.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, detail ErrorDetail) {
	s.respondJSON(w, status, ErrorBody{Error: detail, RequestID: middleware.GetReqID(r.Context())})
}

// respondUpstreamError maps a content API failure onto an HTTP status.
func (s *Server) respondUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := mapUpstreamError(err)
	s.log.Warn("Upstream request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"code", detail.Code,
		"error", err,
	)
	s.respondError(w, r, status, detail)
}

func mapUpstreamError(err error) (int, ErrorDetail) {
	if prtimes.IsTimeout(err) {
		return http.StatusGatewayTimeout, ErrorDetail{Code: CodeUpstreamTimeout, Message: "upstream request timed out"}
	}

	var se *prtimes.StatusError
	if !errors.As(err, &se) {
		if errors.Is(err, prtimes.ErrUnavailable) {
			return http.StatusServiceUnavailable, ErrorDetail{Code: CodeUpstreamUnavailable, Message: err.Error()}
		}
		return http.StatusBadGateway, ErrorDetail{Code: CodeUpstreamError, Message: err.Error()}
	}

	detail := ErrorDetail{Message: fmt.Sprintf("upstream returned status %d", se.StatusCode), Upstream: se.Payload()}
	var status int
	switch se.StatusCode {
	case http.StatusBadRequest:
		status, detail.Code = http.StatusBadRequest, CodeBadRequest
	case http.StatusUnauthorized:
		status, detail.Code, detail.Message = http.StatusUnauthorized, CodeUnauthorized, authHint
	case http.StatusForbidden:
		status, detail.Code, detail.Message = http.StatusForbidden, CodeForbidden, authHint
	case http.StatusNotFound:
		status, detail.Code = http.StatusNotFound, CodeNotFound
	case http.StatusTooManyRequests:
		status, detail.Code = http.StatusTooManyRequests, CodeRateLimited
	case http.StatusServiceUnavailable:
		status, detail.Code = http.StatusServiceUnavailable, CodeUpstreamUnavailable
	case http.StatusGatewayTimeout:
		status, detail.Code = http.StatusGatewayTimeout, CodeUpstreamTimeout
	default:
		status, detail.Code = http.StatusBadGateway, CodeUpstreamError
	}
	return status, detail
}

// params collects query and path validation failures.
type params struct {
	r      *http.Request
	fields []analysis.FieldError
}

func newParams(r *http.Request) *params {
	return &params{r: r}
}

func (p *params) fail(field, format string, args ...any) {
	p.fields = append(p.fields, analysis.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (p *params) bounded(field, raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(field, "must be an integer")
		return def
	}
	if v < min || v > max {
		p.fail(field, "must be between %d and %d", min, max)
		return def
	}
	return v
}

// Query reads an integer query parameter.
func (p *params) Query(name string, def, min, max int) int {
	return p.bounded(name, p.r.URL.Query().Get(name), def, min, max)
}

// Path reads a required integer path parameter.
func (p *params) Path(name, field string, min, max int) int {
	raw := chi.URLParam(p.r, name)
	if raw == "" {
		p.fail(field, "is required")
		return 0
	}
	return p.bounded(field, raw, 0, min, max)
}

// Date reads an optional YYYY-MM-DD query parameter.
func (p *params) Date(name string) string {
	raw := p.r.URL.Query().Get(name)
	if raw != "" && !validDate(raw) {
		p.fail(name, "must be YYYY-MM-DD")
		return ""
	}
	return raw
}

// Err returns the collected failures, or nil.
func (p *params) Err() error {
	if len(p.fields) == 0 {
		return nil
	}
	return &analysis.ValidationError{Fields: p.fields}
}

func (s *Server) respondValidation(w http.ResponseWriter, r *http.Request, err error) {
	detail := ErrorDetail{Code: CodeValidation, Message: err.Error()}
	var ve *analysis.ValidationError
	if errors.As(err, &ve) {
		detail.Fields = ve.Fields
	}
	s.respondError(w, r, http.StatusUnprocessableEntity, detail)
}
