package computer

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path"

	"github.com/google/uuid"
)

// Screenshot captures the sandbox screen and returns the image base64-encoded.
//
// The capture pipeline runs entirely inside the sandbox: scrot writes a PNG
// under the output directory, convert resizes it in place to the scaled
// target dimensions, and the file is then copied to the host. Filenames carry
// a random 128-bit hex suffix so concurrent sessions against the same sandbox
// filesystem never collide. Files are not cleaned up here; retention is an
// integration concern.
func (s *Session) Screenshot(ctx context.Context) (Result, error) {
	geo, err := s.ensureGeometry(ctx)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.shell(ctx, "mkdir -p "+s.cfg.outputDir, false); err != nil {
		return Result{}, err
	}

	file := path.Join(s.cfg.outputDir, fmt.Sprintf("screenshot_%s.png", randomHex()))

	if _, err := s.shell(ctx, fmt.Sprintf("%sscrot -f %s -p", s.displayPrefix, file), false); err != nil {
		return Result{}, err
	}

	if s.cfg.scalingEnabled {
		w, h, err := s.scale(SourceComputer, geo.Width, geo.Height)
		if err != nil {
			return Result{}, err
		}
		if _, err := s.shell(ctx, fmt.Sprintf("convert %s -resize %dx%d! %s", file, w, h, file), false); err != nil {
			return Result{}, err
		}
	}

	localPath, stderr, err := s.runner.CopyOut(ctx, s.sandboxID, file)
	if err != nil {
		s.recordCaptureFailure()
		return Result{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		s.recordCaptureFailure()
		return Result{}, fmt.Errorf("%w: %s", ErrCaptureFailed, stderr)
	}

	return Result{
		Error:       stderr,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (s *Session) recordCaptureFailure() {
	if s.cfg.metrics != nil {
		s.cfg.metrics.CaptureFailures.Inc()
	}
}

// randomHex returns 32 hex characters of randomness for screenshot filenames.
func randomHex() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
