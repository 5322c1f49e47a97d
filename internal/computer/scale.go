package computer

import (
	"fmt"
	"math"
)

// ScalingSource identifies which coordinate space an (x, y) pair is in.
type ScalingSource string

const (
	// SourceAPI means coordinates were supplied by the agent in scaled
	// target-resolution space.
	SourceAPI ScalingSource = "api"

	// SourceComputer means coordinates were reported by the sandbox in native
	// device space.
	SourceComputer ScalingSource = "computer"
)

// TargetResolution is one entry of the fixed scaling table.
type TargetResolution struct {
	Name   string
	Width  int
	Height int
}

// Sizes above XGA/WXGA are not recommended for agent use, so device
// coordinates are capped to the first matching entry. Order matters.
var scalingTargets = []TargetResolution{
	{Name: "XGA", Width: 1024, Height: 768},   // 4:3
	{Name: "WXGA", Width: 1280, Height: 800},  // 16:10
	{Name: "FWXGA", Width: 1366, Height: 768}, // ~16:9
}

const aspectRatioTolerance = 0.02

// ScalingTargets returns a copy of the target resolution table.
func ScalingTargets() []TargetResolution {
	out := make([]TargetResolution, len(scalingTargets))
	copy(out, scalingTargets)
	return out
}

// targetFor picks the scaling target for a device geometry. The scan stops at
// the first aspect-ratio match even when that entry's width guard fails;
// integrations depend on a 1280x800 device matching WXGA and then scaling not
// at all, rather than falling through to FWXGA.
func targetFor(geo Geometry) (TargetResolution, bool) {
	ratio := float64(geo.Width) / float64(geo.Height)
	for _, dim := range scalingTargets {
		if math.Abs(float64(dim.Width)/float64(dim.Height)-ratio) < aspectRatioTolerance {
			if dim.Width < geo.Width {
				return dim, true
			}
			break
		}
	}
	return TargetResolution{}, false
}

// Scale converts a coordinate pair between API space and device space for the
// given geometry. When no usable scaling target exists the input is returned
// unchanged. Rounding is math.Round: nearest integer, ties away from zero.
//
// SourceAPI scales up into device space and returns ErrOutOfBounds when the
// input exceeds the device bounds. SourceComputer scales down into API space.
func Scale(source ScalingSource, x, y int, geo Geometry) (int, int, error) {
	target, ok := targetFor(geo)
	if !ok {
		return x, y, nil
	}

	// Both factors are < 1 by construction of targetFor.
	xFactor := float64(target.Width) / float64(geo.Width)
	yFactor := float64(target.Height) / float64(geo.Height)

	if source == SourceAPI {
		if x > geo.Width || y > geo.Height {
			return 0, 0, fmt.Errorf("%w: %d,%d", ErrOutOfBounds, x, y)
		}
		return int(math.Round(float64(x) / xFactor)), int(math.Round(float64(y) / yFactor)), nil
	}
	return int(math.Round(float64(x) * xFactor)), int(math.Round(float64(y) * yFactor)), nil
}
