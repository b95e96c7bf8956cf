// Package http exposes the analysis engine over a JSON REST API with
// RFC 7807 error responses.
package http

import (
	"context"

	"ecomlytics/internal/services"
)

// AnalysisServiceInterface is the service surface the handlers consume
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, req services.Request) (*services.Result, error)
	Reload(ctx context.Context) (string, error)
	DataVersion() string
}

// ReportWriterInterface renders an analysis result into report files
type ReportWriterInterface interface {
	WriteAll(res *services.Result) error
}
