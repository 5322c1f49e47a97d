// Package toolconv converts internal tools into Anthropic API tool
// definitions.
package toolconv

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haasonsaas/marionette/internal/tools"
)

// ComputerUseDisplay describes the display advertised to the model alongside
// the computer-use tool definition. Sizes are in API (scaled) space.
type ComputerUseDisplay struct {
	WidthPx       int
	HeightPx      int
	DisplayNumber int
}

// ToAnthropicBetaTool converts a tool to an Anthropic beta tool definition.
func ToAnthropicBetaTool(tool tools.Tool) (anthropic.BetaToolUnionParam, error) {
	var schema anthropic.BetaToolInputSchemaParam
	if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
		return anthropic.BetaToolUnionParam{}, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
	}

	toolParam := anthropic.BetaToolUnionParamOfTool(schema, tool.Name())
	if toolParam.OfTool == nil {
		return anthropic.BetaToolUnionParam{}, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name())
	}
	toolParam.OfTool.Description = anthropic.String(tool.Description())
	return toolParam, nil
}

// ComputerUseBetaTool builds the Anthropic computer_20241022 tool definition
// for the given display. This is the native computer-use surface; parameter
// shape is fixed by the API, not by the tool's own schema.
func ComputerUseBetaTool(display ComputerUseDisplay) anthropic.BetaToolUnionParam {
	param := anthropic.BetaToolUnionParamOfComputerUseTool20241022(
		int64(display.HeightPx),
		int64(display.WidthPx),
	)
	if param.OfComputerUseTool20241022 != nil && display.DisplayNumber > 0 {
		param.OfComputerUseTool20241022.DisplayNumber = anthropic.Int(int64(display.DisplayNumber))
	}
	return param
}
