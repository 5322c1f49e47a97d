// Package computeruse exposes the computer-use session as an agent tool:
// JSON parameters in, combined text plus screenshot artifact out.
package computeruse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/marionette/internal/computer"
	"github.com/haasonsaas/marionette/internal/observability"
	"github.com/haasonsaas/marionette/internal/tools"
)

type params struct {
	Action     string  `json:"action"`
	Text       *string `json:"text"`
	Coordinate []int   `json:"coordinate"`
}

// Tool drives a computer-use session through the agent tool contract.
type Tool struct {
	session *computer.Session
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// Option configures the tool.
type Option func(*Tool)

// WithLogger sets the structured logger.
func WithLogger(logger *observability.Logger) Option {
	return func(t *Tool) { t.logger = logger }
}

// WithMetrics enables dispatch metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(t *Tool) { t.metrics = metrics }
}

// WithTracer enables dispatch tracing.
func WithTracer(tracer *observability.Tracer) Option {
	return func(t *Tool) { t.tracer = tracer }
}

// NewTool creates a computer-use tool backed by the given session.
func NewTool(session *computer.Session, opts ...Option) *Tool {
	t := &Tool{session: session}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = observability.NopLogger()
	}
	return t
}

func (t *Tool) Name() string { return "computer" }

func (t *Tool) Description() string {
	return "Interact with the screen, keyboard, and mouse of the sandbox display. Call get_screen_info before any other action."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(SchemaJSON)
}

// Execute validates the parameters against the schema, dispatches the action,
// and converts the outcome into the tool result surface: combined
// "stdout: ..., stderr: ..." text plus a PNG artifact when a screenshot was
// taken. Dispatch failures are reported via IsError, not raised.
func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (*tools.ToolResult, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := validateParams(raw); err != nil {
		return &tools.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
	}

	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return &tools.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
	}

	req := computer.Request{
		Action:     computer.Action(p.Action),
		Coordinate: p.Coordinate,
	}
	if p.Text != nil {
		req.Text = *p.Text
		req.HasText = true
	}

	start := time.Now()
	result, err := t.dispatch(ctx, req)
	if t.metrics != nil {
		t.metrics.RecordAction(p.Action, err, time.Since(start).Seconds())
	}
	if err != nil {
		t.logger.Warn(ctx, "action failed", "action", p.Action, "error", err)
		return &tools.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	return t.toToolResult(result), nil
}

func (t *Tool) dispatch(ctx context.Context, req computer.Request) (computer.Result, error) {
	if t.tracer == nil {
		return t.session.Dispatch(ctx, req)
	}
	ctx, span := t.tracer.TraceDispatch(ctx, string(req.Action), t.session.SandboxID())
	defer span.End()

	result, err := t.session.Dispatch(ctx, req)
	t.tracer.RecordError(span, err)
	return result, err
}

func (t *Tool) toToolResult(result computer.Result) *tools.ToolResult {
	out := &tools.ToolResult{
		Content: fmt.Sprintf("stdout: %s, stderr: %s", result.Output, result.Error),
	}
	if result.ImageBase64 != "" {
		if data, err := base64.StdEncoding.DecodeString(result.ImageBase64); err == nil {
			out.Artifacts = append(out.Artifacts, tools.Artifact{
				ID:       uuid.NewString(),
				Type:     "screenshot",
				MimeType: "image/png",
				Filename: "screenshot.png",
				Data:     data,
			})
		}
	}
	return out
}

// DisplayOptions reports the display size advertised to the model. The size
// comes from the session, so it tracks the scaling toggle: API space when
// scaling is on, native device space otherwise. ok is false until geometry
// has been established.
func (t *Tool) DisplayOptions() (width, height, displayNumber int, ok bool) {
	w, h, ok := t.session.DisplaySize()
	if !ok {
		return 0, 0, 0, false
	}
	if geo, ok := t.session.Geometry(); ok && geo.DisplayNumber != nil {
		displayNumber = *geo.DisplayNumber
	}
	return w, h, displayNumber, true
}
