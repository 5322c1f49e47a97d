package computer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/marionette/internal/sandbox"
)

func TestRefreshGeometry(t *testing.T) {
	one := 1

	tests := []struct {
		name       string
		screenInfo string
		want       Geometry
		wantPrefix string
	}{
		{
			name:       "full environment",
			screenInfo: "2560,1600,1\n",
			want:       Geometry{Width: 2560, Height: 1600, DisplayNumber: &one},
			wantPrefix: "DISPLAY=:1 ",
		},
		{
			name:       "missing display",
			screenInfo: "1920,1080,\n",
			want:       Geometry{Width: 1920, Height: 1080},
		},
		{
			name:       "empty fields fall back to portrait defaults",
			screenInfo: ",,\n",
			want:       Geometry{Width: 1080, Height: 1920},
		},
		{
			name:       "missing height only",
			screenInfo: "1366,,\n",
			want:       Geometry{Width: 1366, Height: 1920},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeRunner{screenInfo: tc.screenInfo}
			s := newTestSession(t, f, nil)

			geo, err := s.RefreshGeometry(context.Background())
			if err != nil {
				t.Fatalf("RefreshGeometry failed: %v", err)
			}
			if geo.Width != tc.want.Width || geo.Height != tc.want.Height {
				t.Errorf("geometry = %dx%d, want %dx%d", geo.Width, geo.Height, tc.want.Width, tc.want.Height)
			}
			switch {
			case tc.want.DisplayNumber == nil && geo.DisplayNumber != nil:
				t.Errorf("DisplayNumber = %d, want nil", *geo.DisplayNumber)
			case tc.want.DisplayNumber != nil && (geo.DisplayNumber == nil || *geo.DisplayNumber != *tc.want.DisplayNumber):
				t.Errorf("DisplayNumber = %v, want %d", geo.DisplayNumber, *tc.want.DisplayNumber)
			}
			if s.displayPrefix != tc.wantPrefix {
				t.Errorf("displayPrefix = %q, want %q", s.displayPrefix, tc.wantPrefix)
			}

			cached, ok := s.Geometry()
			if !ok || cached != geo {
				t.Errorf("Geometry() = %+v, %v; want cached %+v", cached, ok, geo)
			}
		})
	}
}

func TestRefreshGeometryUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		screenInfo string
	}{
		{name: "empty output", screenInfo: "\n"},
		{name: "wrong field count", screenInfo: "1920,1080\n"},
		{name: "non-numeric fields", screenInfo: "wide,tall,main\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeRunner{screenInfo: tc.screenInfo}
			s := newTestSession(t, f, nil)

			_, err := s.RefreshGeometry(context.Background())
			if !errors.Is(err, ErrGeometryUnavailable) {
				t.Errorf("RefreshGeometry error = %v, want ErrGeometryUnavailable", err)
			}
			if _, ok := s.Geometry(); ok {
				t.Error("failed refresh must not cache geometry")
			}
		})
	}
}

type erroringRunner struct {
	fakeRunner
}

func (e *erroringRunner) Exec(_ context.Context, _ string, _ string) (*sandbox.ExecResult, error) {
	return nil, errors.New("container not running")
}

func TestRefreshGeometryExecError(t *testing.T) {
	s := newTestSession(t, &fakeRunner{}, nil)
	s.runner = &erroringRunner{}

	_, err := s.RefreshGeometry(context.Background())
	if !errors.Is(err, ErrGeometryUnavailable) {
		t.Errorf("RefreshGeometry error = %v, want ErrGeometryUnavailable", err)
	}
}

func TestSessionOptions(t *testing.T) {
	f := &fakeRunner{}
	f.dir = t.TempDir()
	f.copyData = []byte("png")
	f.screenInfo = "1024,768,\n"

	s := NewSession(f, "sandbox-2",
		WithOutputDir("/var/captures"),
		WithTypingChunkSize(10),
		WithTypingDelay(0),
		WithScreenshotDelay(0),
	)
	bootstrap(t, s, f)

	if _, err := s.Dispatch(context.Background(), Request{Action: ActionType, Text: strings.Repeat("x", 25), HasText: true}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if got := f.commandsMatching("type --delay 0 -- "); len(got) != 3 {
		t.Errorf("expected 3 chunks of 10 with zero delay, got %v", f.commands)
	}
	if got := f.commandsMatching("mkdir -p /var/captures"); len(got) != 1 {
		t.Errorf("expected custom output dir, got %v", f.commands)
	}
}

func TestDisplaySize(t *testing.T) {
	f := &fakeRunner{screenInfo: "2560,1600,\n"}
	s := newTestSession(t, f, nil)

	if _, _, ok := s.DisplaySize(); ok {
		t.Error("DisplaySize reported ok before geometry was established")
	}

	bootstrap(t, s, f)
	if w, h, ok := s.DisplaySize(); !ok || w != 1280 || h != 800 {
		t.Errorf("DisplaySize = %dx%d, %v; want 1280x800", w, h, ok)
	}
}

func TestDisplaySizeScalingDisabled(t *testing.T) {
	f := &fakeRunner{screenInfo: "2560,1600,\n"}
	f.dir = t.TempDir()
	f.copyData = []byte("png")

	s := NewSession(f, "sandbox-4",
		WithScaling(false),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	bootstrap(t, s, f)

	// With scaling off the advertised size must be the native one, matching
	// the unscaled coordinates dispatch sends.
	if w, h, ok := s.DisplaySize(); !ok || w != 2560 || h != 1600 {
		t.Errorf("DisplaySize = %dx%d, %v; want native 2560x1600", w, h, ok)
	}
}

func TestScalingDisabled(t *testing.T) {
	f := &fakeRunner{screenInfo: "2560,1600,\n"}
	f.dir = t.TempDir()
	f.copyData = []byte("png")

	s := NewSession(f, "sandbox-3",
		WithScaling(false),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	bootstrap(t, s, f)

	if _, err := s.Dispatch(context.Background(), Request{Action: ActionMouseMove, Coordinate: []int{640, 400}}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if got := f.commandsMatching("mousemove --sync 640 400"); len(got) != 1 {
		t.Errorf("expected unscaled coordinates, got %v", f.commands)
	}
	if got := f.commandsMatching("convert"); len(got) != 0 {
		t.Errorf("scaling disabled must skip convert, got %v", got)
	}
}
