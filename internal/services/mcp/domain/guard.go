package domain

import (
	"context"
	"errors"
	"fmt"
	"log"

	apperrors "github.com/louisbranch/demoscope/internal/platform/errors"
	"github.com/louisbranch/demoscope/internal/platform/errors/i18n"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const instrumentationName = "github.com/louisbranch/demoscope/internal/services/mcp/domain"

// ResourceUpdateNotifier publishes resource update notifications.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NotifyResourceUpdates sends one update notification per URI.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	for _, uri := range uris {
		notify(ctx, uri)
	}
}

// Guard bounds a tool call with a timeout and a span, turns domain errors into
// "CODE: message" tool errors and recovers panics as INTERNAL.
func Guard[I, O any](name string, handler mcp.ToolHandlerFor[I, O]) mcp.ToolHandlerFor[I, O] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input I) (result *mcp.CallToolResult, output O, err error) {
		ctx, cancel := context.WithTimeout(ctx, toolCallTimeout)
		defer cancel()
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, "mcp."+name)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("tool %s panicked: %v", name, r)
				var zero O
				result, output = nil, zero
				err = apperrors.New(apperrors.CodeInternal, fmt.Sprintf("tool %s failed", name))
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String("demoscope.error_code", string(apperrors.CodeOf(err))))
				err = ToolError(err)
			}
		}()

		return handler(ctx, req, input)
	}
}

// ToolError renders err for an MCP client. Domain errors become
// "CODE: localized message"; other errors are reported as INTERNAL.
func ToolError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return fmt.Errorf("%s: %v", apperrors.CodeInternal, err)
	}
	return fmt.Errorf("%s: %s", domainErr.Code, apperrors.UserMessage(domainErr, i18n.BaseLocale))
}
