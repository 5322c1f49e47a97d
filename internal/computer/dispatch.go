package computer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// Dispatch validates and executes one action against the sandbox. Argument
// violations fail with ErrInvalidArgument, unknown actions with
// ErrInvalidAction, and every action other than get_screen_info requires
// geometry to have been established first.
func (s *Session) Dispatch(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	if req.Action == ActionGetScreenInfo {
		return s.getScreenInfo(ctx)
	}
	if s.geo == nil {
		return Result{}, ErrGeometryRequired
	}

	switch req.Action {
	case ActionMouseMove, ActionLeftClickDrag:
		x, y, err := s.scale(SourceAPI, req.Coordinate[0], req.Coordinate[1])
		if err != nil {
			return Result{}, err
		}
		if req.Action == ActionMouseMove {
			return s.shell(ctx, fmt.Sprintf("%s mousemove --sync %d %d", s.xdotool(), x, y), true)
		}
		return s.shell(ctx, fmt.Sprintf("%s mousedown 1 mousemove --sync %d %d mouseup 1", s.xdotool(), x, y), true)

	case ActionKey:
		return s.shell(ctx, fmt.Sprintf("%s key -- %s", s.xdotool(), req.Text), true)

	case ActionType:
		return s.typeText(ctx, req.Text)

	case ActionScreenshot:
		return s.Screenshot(ctx)

	case ActionCursorPosition:
		return s.cursorPosition(ctx)

	case ActionScrollUp, ActionScrollDown:
		button := 4
		if req.Action == ActionScrollDown {
			button = 5
		}
		return s.shell(ctx, fmt.Sprintf("%s click --repeat 1 %d", s.xdotool(), button), true)

	case ActionLeftClick, ActionRightClick, ActionMiddleClick, ActionDoubleClick:
		return s.shell(ctx, fmt.Sprintf("%s click %s", s.xdotool(), clickArgs[req.Action]), true)
	}

	return Result{}, fmt.Errorf("%w: %s", ErrInvalidAction, req.Action)
}

// clickArgs maps click actions to xdotool click arguments. double_click is a
// repeated button-1 click with a 500 ms gap between presses.
var clickArgs = map[Action]string{
	ActionLeftClick:   "1",
	ActionMiddleClick: "2",
	ActionRightClick:  "3",
	ActionDoubleClick: "--repeat 2 --delay 500 1",
}

// getScreenInfo re-queries geometry and returns a summary plus a screenshot.
// It is the bootstrap entry point and never requires prior geometry.
func (s *Session) getScreenInfo(ctx context.Context) (Result, error) {
	geo, err := s.RefreshGeometry(ctx)
	if err != nil {
		return Result{}, err
	}
	shot, err := s.Screenshot(ctx)
	if err != nil {
		return Result{}, err
	}

	display := "none"
	if geo.DisplayNumber != nil {
		display = strconv.Itoa(*geo.DisplayNumber)
	}
	return Result{
		Output:      fmt.Sprintf("width: %d, height: %d, display_num: %s", geo.Width, geo.Height, display),
		Error:       shot.Error,
		ImageBase64: shot.ImageBase64,
	}, nil
}

// typeText sends the text in fixed-size chunks so no single sandbox command
// grows too long. Per-chunk screenshots are suppressed; exactly one is taken
// after the final chunk.
func (s *Session) typeText(ctx context.Context, text string) (Result, error) {
	combined := Result{}
	for _, chunk := range chunkText(text, s.cfg.typingChunkSize) {
		cmd := fmt.Sprintf("%s type --delay %d -- %s",
			s.xdotool(), s.cfg.typingDelay.Milliseconds(), shellescape.Quote(chunk))
		res, err := s.shell(ctx, cmd, false)
		if err != nil {
			return Result{}, err
		}
		combined, err = Merge(combined, res)
		if err != nil {
			return Result{}, err
		}
	}

	shot, err := s.Screenshot(ctx)
	if err != nil {
		return Result{}, err
	}
	combined.ImageBase64 = shot.ImageBase64
	return combined, nil
}

// cursorPosition reads the device-space mouse position and reports it in API
// space. No screenshot is attached.
func (s *Session) cursorPosition(ctx context.Context) (Result, error) {
	res, err := s.shell(ctx, s.xdotool()+" getmouselocation --shell", false)
	if err != nil {
		return Result{}, err
	}

	deviceX, err := parseLocationField(res.Output, "X=")
	if err != nil {
		return Result{}, err
	}
	deviceY, err := parseLocationField(res.Output, "Y=")
	if err != nil {
		return Result{}, err
	}

	x, y, err := s.scale(SourceComputer, deviceX, deviceY)
	if err != nil {
		return Result{}, err
	}
	res.Output = fmt.Sprintf("X=%d,Y=%d", x, y)
	return res, nil
}

// parseLocationField extracts an integer from xdotool getmouselocation
// --shell output, which prints one KEY=value pair per line.
func parseLocationField(output, prefix string) (int, error) {
	_, rest, found := strings.Cut(output, prefix)
	if !found {
		return 0, fmt.Errorf("mouse location output missing %q: %q", prefix, output)
	}
	value, _, _ := strings.Cut(rest, "\n")
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse mouse location %q: %w", value, err)
	}
	return n, nil
}

// chunkText splits s into rune-aligned chunks of at most size characters.
func chunkText(s string, size int) []string {
	if size <= 0 || s == "" {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
