package schema

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies failures for the error surface and diagnostics.
type ErrorKind string

// All error kinds reported to users.
const (
	ShapeErrorKind        ErrorKind = "shape"
	TargetNotFoundKind    ErrorKind = "target_not_found"
	NetworkErrorKind      ErrorKind = "network"
	HTTPErrorKind         ErrorKind = "http"
	ParseErrorKind        ErrorKind = "parse"
	UnsupportedFormatKind ErrorKind = "unsupported_format"
	ProcessingFailedKind  ErrorKind = "processing_failed"
	TimeoutKind           ErrorKind = "timeout"
	PersistenceKind       ErrorKind = "persistence"
	RenderKind            ErrorKind = "render"
	StaleKind             ErrorKind = "stale"
	UnknownKind           ErrorKind = "unknown"
)

// Sentinel errors.
var (
	ErrEmptySeries             = errors.New("empty series")
	ErrMissingField            = errors.New("missing field")
	ErrUnorderedSeries         = errors.New("series is not ordered by year")
	ErrScenarioAxisMismatch    = errors.New("scenarios do not share a year axis")
	ErrInvalidSensitivityValue = errors.New("invalid sensitivity value")
	ErrMissingRiskField        = errors.New("missing risk field")
	ErrTargetNotFound          = errors.New("render target not found")
	ErrUnsupportedFormat       = errors.New("unsupported file format")
	ErrParse                   = errors.New("parse error")
	ErrProcessingFailed        = errors.New("processing failed")
	ErrTimeout                 = errors.New("request timed out")
	ErrNetwork                 = errors.New("network error")
	ErrStaleResponse           = errors.New("stale response discarded")
	ErrNoChart                 = errors.New("chart has not been rendered")
	ErrRenderFailed            = errors.New("render failed")
	ErrPersistence             = errors.New("persistence failed")
)

// ShapeError is a validation failure for one chart kind.
type ShapeError struct {
	Kind   ChartKind
	Err    error
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s data: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s data: %v: %s", e.Kind, e.Err, e.Detail)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// NewShapeError builds a ShapeError with a formatted detail.
func NewShapeError(kind ChartKind, err error, format string, args ...any) *ShapeError {
	return &ShapeError{Kind: kind, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Endpoint, e.Status, e.Message)
}

// KindOf classifies an error into the user-facing taxonomy.
func KindOf(err error) ErrorKind {
	var shapeErr *ShapeError
	var httpErr *HTTPError
	var netErr net.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &shapeErr):
		return ShapeErrorKind
	case errors.Is(err, ErrStaleResponse):
		return StaleKind
	case errors.Is(err, ErrTargetNotFound):
		return TargetNotFoundKind
	case errors.Is(err, ErrUnsupportedFormat):
		return UnsupportedFormatKind
	case errors.Is(err, ErrProcessingFailed):
		return ProcessingFailedKind
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return TimeoutKind
	case errors.As(err, &httpErr):
		return HTTPErrorKind
	case errors.Is(err, ErrParse):
		return ParseErrorKind
	case errors.Is(err, ErrPersistence):
		return PersistenceKind
	case errors.Is(err, ErrNetwork), errors.As(err, &netErr):
		return NetworkErrorKind
	case errors.Is(err, ErrNoChart), errors.Is(err, ErrRenderFailed):
		return RenderKind
	}
	return UnknownKind
}
