// Package computer drives a container's display, keyboard, and mouse for
// agent computer use. Actions are translated into xdotool/scrot commands
// executed inside the sandbox, and coordinates are rescaled between the
// container's native resolution and a fixed table of target resolutions.
package computer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/marionette/internal/observability"
	"github.com/haasonsaas/marionette/internal/sandbox"
)

const (
	defaultOutputDir       = "/tmp/outputs"
	defaultScreenshotDelay = 2 * time.Second
	defaultTypingDelay     = 12 * time.Millisecond
	defaultTypingChunkSize = 50
)

// Geometry is the sandbox display's native size. It is discovered once per
// session and never mutated afterwards.
type Geometry struct {
	Width         int
	Height        int
	DisplayNumber *int
}

// SleepFunc waits for the given duration or until ctx is done. Injected so
// tests can use a fake clock instead of the real settle delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type config struct {
	outputDir       string
	screenshotDelay time.Duration
	typingDelay     time.Duration
	typingChunkSize int
	scalingEnabled  bool
	sleep           SleepFunc
	logger          *observability.Logger
	metrics         *observability.Metrics
}

// Option configures a session at creation time.
type Option func(*config)

// WithOutputDir sets the directory inside the sandbox where screenshots are
// written (and the mirrored host path they are copied to).
func WithOutputDir(dir string) Option {
	return func(c *config) {
		c.outputDir = dir
	}
}

// WithScreenshotDelay sets the settle delay before post-action screenshots.
func WithScreenshotDelay(d time.Duration) Option {
	return func(c *config) {
		c.screenshotDelay = d
	}
}

// WithTypingDelay sets the inter-keystroke delay for type actions.
func WithTypingDelay(d time.Duration) Option {
	return func(c *config) {
		c.typingDelay = d
	}
}

// WithTypingChunkSize sets how many characters of a type action are sent per
// sandbox command.
func WithTypingChunkSize(n int) Option {
	return func(c *config) {
		c.typingChunkSize = n
	}
}

// WithScaling enables or disables coordinate and screenshot rescaling.
func WithScaling(enabled bool) Option {
	return func(c *config) {
		c.scalingEnabled = enabled
	}
}

// WithSleeper replaces the real clock used for settle delays.
func WithSleeper(sleep SleepFunc) Option {
	return func(c *config) {
		c.sleep = sleep
	}
}

// WithLogger sets the structured logger for sandbox command logging.
func WithLogger(logger *observability.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics enables sandbox command and capture failure metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *config) {
		c.metrics = metrics
	}
}

// Session drives computer-use actions against one sandbox. Geometry is
// established lazily on first use and cached for the session's lifetime.
//
// A Session is single-owner: callers must serialize calls, there is no
// internal locking.
type Session struct {
	runner    sandbox.Runner
	sandboxID string
	cfg       config

	geo           *Geometry
	displayPrefix string
}

// NewSession creates a session for the given sandbox.
func NewSession(runner sandbox.Runner, sandboxID string, opts ...Option) *Session {
	cfg := config{
		outputDir:       defaultOutputDir,
		screenshotDelay: defaultScreenshotDelay,
		typingDelay:     defaultTypingDelay,
		typingChunkSize: defaultTypingChunkSize,
		scalingEnabled:  true,
		sleep:           sleepContext,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sleep == nil {
		cfg.sleep = sleepContext
	}
	if cfg.logger == nil {
		cfg.logger = observability.NopLogger()
	}
	return &Session{runner: runner, sandboxID: sandboxID, cfg: cfg}
}

// SandboxID returns the sandbox this session drives.
func (s *Session) SandboxID() string {
	return s.sandboxID
}

// DisplaySize returns the display size the caller should advertise: API
// space when scaling is enabled, native device space otherwise. ok is false
// until geometry has been established.
func (s *Session) DisplaySize() (width, height int, ok bool) {
	if s.geo == nil {
		return 0, 0, false
	}
	w, h, err := s.scale(SourceComputer, s.geo.Width, s.geo.Height)
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// Geometry returns the cached display geometry, if established.
func (s *Session) Geometry() (Geometry, bool) {
	if s.geo == nil {
		return Geometry{}, false
	}
	return *s.geo, true
}

// RefreshGeometry queries the sandbox for its display environment and caches
// the result. The sandbox is expected to print "$WIDTH,$HEIGHT,$DISPLAY_NUM";
// empty fields are allowed. Missing width/height fall back to 1080x1920 —
// the historical portrait-oriented defaults, kept as-is because downstream
// integrations depend on them even though they sit outside the landscape
// scaling table.
func (s *Session) RefreshGeometry(ctx context.Context) (Geometry, error) {
	res, err := s.shell(ctx, "echo $WIDTH,$HEIGHT,$DISPLAY_NUM", false)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrGeometryUnavailable, err)
	}
	if res.Error != "" {
		return Geometry{}, fmt.Errorf("%w: %s", ErrGeometryUnavailable, res.Error)
	}
	output := strings.TrimSpace(res.Output)
	if output == "" {
		return Geometry{}, fmt.Errorf("%w: empty screen info", ErrGeometryUnavailable)
	}

	parts := strings.Split(output, ",")
	if len(parts) != 3 {
		return Geometry{}, fmt.Errorf("%w: unparsable screen info %q", ErrGeometryUnavailable, output)
	}
	fields := make([]*int, 3)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: unparsable screen info %q", ErrGeometryUnavailable, output)
		}
		fields[i] = &value
	}

	geo := Geometry{Width: 1080, Height: 1920, DisplayNumber: fields[2]}
	if fields[0] != nil {
		geo.Width = *fields[0]
	}
	if fields[1] != nil {
		geo.Height = *fields[1]
	}

	s.geo = &geo
	if geo.DisplayNumber != nil {
		s.displayPrefix = fmt.Sprintf("DISPLAY=:%d ", *geo.DisplayNumber)
	} else {
		s.displayPrefix = ""
	}

	s.cfg.logger.Debug(ctx, "screen geometry established",
		"width", geo.Width, "height", geo.Height, "display_prefix", s.displayPrefix)
	return geo, nil
}

// ensureGeometry returns the cached geometry, querying the sandbox on first
// use.
func (s *Session) ensureGeometry(ctx context.Context) (Geometry, error) {
	if s.geo != nil {
		return *s.geo, nil
	}
	return s.RefreshGeometry(ctx)
}

// xdotool returns the xdotool invocation prefixed with the display selector.
func (s *Session) xdotool() string {
	return s.displayPrefix + "xdotool"
}

// scale converts coordinates between API and device space, honoring the
// session's scaling toggle.
func (s *Session) scale(source ScalingSource, x, y int) (int, int, error) {
	if !s.cfg.scalingEnabled {
		return x, y, nil
	}
	if s.geo == nil {
		return 0, 0, ErrGeometryRequired
	}
	return Scale(source, x, y, *s.geo)
}

// shell runs a command in the sandbox and assembles a Result from its output.
// Stderr is carried in the result rather than raised. When takeScreenshot is
// set, the session sleeps for the settle delay and attaches a screenshot.
func (s *Session) shell(ctx context.Context, command string, takeScreenshot bool) (Result, error) {
	s.cfg.logger.Debug(ctx, "sandbox command", "sandbox_id", s.sandboxID, "command", command)

	res, err := s.runner.Exec(ctx, s.sandboxID, command)
	if s.cfg.metrics != nil {
		status := "success"
		if err != nil || (res != nil && res.ExitCode != 0) {
			status = "error"
		}
		s.cfg.metrics.SandboxCommandCounter.WithLabelValues(status).Inc()
	}
	if err != nil {
		return Result{}, fmt.Errorf("execute %q: %w", command, err)
	}
	result := Result{Output: res.Stdout, Error: res.Stderr}

	if takeScreenshot {
		// Let the UI settle before capturing.
		if err := s.cfg.sleep(ctx, s.cfg.screenshotDelay); err != nil {
			return Result{}, err
		}
		shot, err := s.Screenshot(ctx)
		if err != nil {
			return Result{}, err
		}
		result.ImageBase64 = shot.ImageBase64
	}
	return result, nil
}
