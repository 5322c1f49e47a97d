package computer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/marionette/internal/sandbox"
)

// fakeRunner scripts sandbox behavior and records every executed command.
type fakeRunner struct {
	commands      []string
	screenInfo    string
	mouseLocation string
	copyData      []byte
	copyStderr    string
	copyErr       error
	dir           string
}

func (f *fakeRunner) Exec(_ context.Context, _ string, command string) (*sandbox.ExecResult, error) {
	f.commands = append(f.commands, command)
	switch {
	case strings.HasPrefix(command, "echo $WIDTH"):
		return &sandbox.ExecResult{Stdout: f.screenInfo}, nil
	case strings.Contains(command, "getmouselocation"):
		return &sandbox.ExecResult{Stdout: f.mouseLocation}, nil
	}
	return &sandbox.ExecResult{}, nil
}

func (f *fakeRunner) CopyOut(_ context.Context, _ string, path string) (string, string, error) {
	if f.copyErr != nil {
		return "", f.copyStderr, f.copyErr
	}
	local := filepath.Join(f.dir, filepath.Base(path))
	if f.copyData != nil {
		if err := os.WriteFile(local, f.copyData, 0o644); err != nil {
			return "", "", err
		}
	}
	return local, f.copyStderr, nil
}

func (f *fakeRunner) commandsMatching(substr string) []string {
	var out []string
	for _, cmd := range f.commands {
		if strings.Contains(cmd, substr) {
			out = append(out, cmd)
		}
	}
	return out
}

func newTestSession(t *testing.T, f *fakeRunner, sleeps *[]time.Duration) *Session {
	t.Helper()
	f.dir = t.TempDir()
	if f.screenInfo == "" {
		f.screenInfo = "2560,1600,\n"
	}
	if f.copyData == nil && f.copyErr == nil {
		f.copyData = []byte("png-bytes")
	}
	return NewSession(f, "sandbox-1",
		WithSleeper(func(_ context.Context, d time.Duration) error {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
			return nil
		}),
	)
}

// bootstrap establishes geometry via get_screen_info and clears the command
// log so tests assert only on their own action.
func bootstrap(t *testing.T, s *Session, f *fakeRunner) {
	t.Helper()
	if _, err := s.Dispatch(context.Background(), Request{Action: ActionGetScreenInfo}); err != nil {
		t.Fatalf("get_screen_info failed: %v", err)
	}
	f.commands = nil
}

func TestDispatchArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "mouse_move without coordinate", req: Request{Action: ActionMouseMove}},
		{name: "mouse_move with text", req: Request{Action: ActionMouseMove, Coordinate: []int{1, 2}, Text: "x", HasText: true}},
		{name: "mouse_move with short coordinate", req: Request{Action: ActionMouseMove, Coordinate: []int{5}}},
		{name: "left_click_drag with negative coordinate", req: Request{Action: ActionLeftClickDrag, Coordinate: []int{-1, 5}}},
		{name: "key without text", req: Request{Action: ActionKey}},
		{name: "type with coordinate", req: Request{Action: ActionType, Text: "hi", HasText: true, Coordinate: []int{1, 2}}},
		{name: "left_click with coordinate", req: Request{Action: ActionLeftClick, Coordinate: []int{1, 2}}},
		{name: "screenshot with text", req: Request{Action: ActionScreenshot, Text: "x", HasText: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeRunner{}
			s := newTestSession(t, f, nil)
			bootstrap(t, s, f)

			_, err := s.Dispatch(context.Background(), tc.req)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Dispatch error = %v, want ErrInvalidArgument", err)
			}
			if len(f.commands) != 0 {
				t.Errorf("invalid request still executed commands: %v", f.commands)
			}
		})
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	f := &fakeRunner{}
	s := newTestSession(t, f, nil)

	_, err := s.Dispatch(context.Background(), Request{Action: "teleport"})
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Dispatch error = %v, want ErrInvalidAction", err)
	}
}

func TestDispatchRequiresGeometry(t *testing.T) {
	actions := []Action{
		ActionKey, ActionType, ActionMouseMove, ActionLeftClick, ActionLeftClickDrag,
		ActionRightClick, ActionMiddleClick, ActionDoubleClick, ActionScreenshot,
		ActionCursorPosition, ActionScrollUp, ActionScrollDown,
	}

	for _, action := range actions {
		t.Run(string(action), func(t *testing.T) {
			f := &fakeRunner{}
			s := newTestSession(t, f, nil)

			req := Request{Action: action}
			switch action {
			case ActionMouseMove, ActionLeftClickDrag:
				req.Coordinate = []int{1, 2}
			case ActionKey, ActionType:
				req.Text = "x"
				req.HasText = true
			}

			_, err := s.Dispatch(context.Background(), req)
			if !errors.Is(err, ErrGeometryRequired) {
				t.Errorf("Dispatch(%s) error = %v, want ErrGeometryRequired", action, err)
			}
		})
	}
}

func TestGetScreenInfo(t *testing.T) {
	f := &fakeRunner{screenInfo: "2560,1600,1\n", copyData: []byte{1, 2, 3}}
	s := newTestSession(t, f, nil)

	result, err := s.Dispatch(context.Background(), Request{Action: ActionGetScreenInfo})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if want := "width: 2560, height: 1600, display_num: 1"; result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
	if result.ImageBase64 == "" {
		t.Error("expected a screenshot to be attached")
	}
	if got := f.commandsMatching("DISPLAY=:1 scrot"); len(got) != 1 {
		t.Errorf("expected one display-prefixed scrot command, got %v", f.commands)
	}
	// Screenshot scaled to WXGA: 2560x1600 halves to 1280x800.
	if got := f.commandsMatching("-resize 1280x800!"); len(got) != 1 {
		t.Errorf("expected one convert resize to 1280x800, got %v", f.commands)
	}
	if got := f.commandsMatching("mkdir -p /tmp/outputs"); len(got) != 1 {
		t.Errorf("expected output dir creation, got %v", f.commands)
	}
}

func TestMouseMoveScalesToDevice(t *testing.T) {
	f := &fakeRunner{}
	var sleeps []time.Duration
	s := newTestSession(t, f, &sleeps)
	bootstrap(t, s, f)
	sleeps = nil

	result, err := s.Dispatch(context.Background(), Request{Action: ActionMouseMove, Coordinate: []int{640, 400}})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if got := f.commandsMatching("xdotool mousemove --sync 1280 800"); len(got) != 1 {
		t.Errorf("expected scaled mousemove command, got %v", f.commands)
	}
	if len(sleeps) != 1 || sleeps[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want one 2s settle delay", sleeps)
	}
	if result.ImageBase64 == "" {
		t.Error("expected a screenshot after mouse_move")
	}
}

func TestLeftClickDragCommand(t *testing.T) {
	f := &fakeRunner{}
	s := newTestSession(t, f, nil)
	bootstrap(t, s, f)

	if _, err := s.Dispatch(context.Background(), Request{Action: ActionLeftClickDrag, Coordinate: []int{100, 100}}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got := f.commandsMatching("mousedown 1 mousemove --sync 200 200 mouseup 1"); len(got) != 1 {
		t.Errorf("expected drag command, got %v", f.commands)
	}
}

func TestClickCommands(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{action: ActionLeftClick, want: "xdotool click 1"},
		{action: ActionMiddleClick, want: "xdotool click 2"},
		{action: ActionRightClick, want: "xdotool click 3"},
		{action: ActionDoubleClick, want: "xdotool click --repeat 2 --delay 500 1"},
		{action: ActionScrollUp, want: "xdotool click --repeat 1 4"},
		{action: ActionScrollDown, want: "xdotool click --repeat 1 5"},
	}

	for _, tc := range tests {
		t.Run(string(tc.action), func(t *testing.T) {
			f := &fakeRunner{}
			var sleeps []time.Duration
			s := newTestSession(t, f, &sleeps)
			bootstrap(t, s, f)
			sleeps = nil

			if _, err := s.Dispatch(context.Background(), Request{Action: tc.action}); err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			if got := f.commandsMatching(tc.want); len(got) != 1 {
				t.Errorf("expected command %q once, got %v", tc.want, f.commands)
			}
			if len(sleeps) != 1 {
				t.Errorf("expected one settle delay before screenshot, got %v", sleeps)
			}
			if got := f.commandsMatching("scrot"); len(got) != 1 {
				t.Errorf("expected exactly one screenshot, got %v", f.commands)
			}
		})
	}
}

func TestTypeChunksText(t *testing.T) {
	f := &fakeRunner{}
	var sleeps []time.Duration
	s := newTestSession(t, f, &sleeps)
	bootstrap(t, s, f)
	sleeps = nil

	text := strings.Repeat("a", 120)
	result, err := s.Dispatch(context.Background(), Request{Action: ActionType, Text: text, HasText: true})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	typeCmds := f.commandsMatching("xdotool type --delay 12 -- ")
	if len(typeCmds) != 3 {
		t.Fatalf("expected 3 chunk commands, got %d: %v", len(typeCmds), typeCmds)
	}
	wantChunks := []string{strings.Repeat("a", 50), strings.Repeat("a", 50), strings.Repeat("a", 20)}
	for i, cmd := range typeCmds {
		if !strings.HasSuffix(cmd, "-- "+wantChunks[i]) {
			t.Errorf("chunk %d command = %q, want suffix %q", i, cmd, wantChunks[i])
		}
	}

	if got := f.commandsMatching("scrot"); len(got) != 1 {
		t.Errorf("expected exactly one screenshot after typing, got %d", len(got))
	}
	if len(sleeps) != 0 {
		t.Errorf("type must not use the settle delay, got %v", sleeps)
	}
	if result.ImageBase64 == "" {
		t.Error("expected a screenshot on the combined result")
	}
}

func TestKeyCommand(t *testing.T) {
	f := &fakeRunner{}
	s := newTestSession(t, f, nil)
	bootstrap(t, s, f)

	if _, err := s.Dispatch(context.Background(), Request{Action: ActionKey, Text: "ctrl+l", HasText: true}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got := f.commandsMatching("xdotool key -- ctrl+l"); len(got) != 1 {
		t.Errorf("expected key command, got %v", f.commands)
	}
}

func TestCursorPosition(t *testing.T) {
	f := &fakeRunner{mouseLocation: "X=1280\nY=800\nSCREEN=0\nWINDOW=44040197\n"}
	s := newTestSession(t, f, nil)
	bootstrap(t, s, f)

	result, err := s.Dispatch(context.Background(), Request{Action: ActionCursorPosition})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if want := "X=640,Y=400"; result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
	if result.ImageBase64 != "" {
		t.Error("cursor_position must not attach a screenshot")
	}
	if got := f.commandsMatching("scrot"); len(got) != 0 {
		t.Errorf("cursor_position captured a screenshot: %v", f.commands)
	}
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
		want []string
	}{
		{name: "empty", in: "", size: 50, want: nil},
		{name: "shorter than chunk", in: "abc", size: 50, want: []string{"abc"}},
		{name: "exact multiple", in: "aabb", size: 2, want: []string{"aa", "bb"}},
		{name: "remainder", in: "aabbc", size: 2, want: []string{"aa", "bb", "c"}},
		{name: "multibyte runes stay whole", in: "héllo wörld", size: 4, want: []string{"héll", "o wö", "rld"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := chunkText(tc.in, tc.size)
			if fmt.Sprint(got) != fmt.Sprint(tc.want) {
				t.Errorf("chunkText(%q, %d) = %v, want %v", tc.in, tc.size, got, tc.want)
			}
		})
	}
}
