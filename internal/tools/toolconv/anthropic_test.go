package toolconv

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/marionette/internal/tools"
)

type staticTool struct {
	name   string
	schema string
}

func (s staticTool) Name() string            { return s.name }
func (s staticTool) Description() string     { return "does " + s.name }
func (s staticTool) Schema() json.RawMessage { return json.RawMessage(s.schema) }
func (s staticTool) Execute(context.Context, json.RawMessage) (*tools.ToolResult, error) {
	return &tools.ToolResult{}, nil
}

func TestToAnthropicBetaTool(t *testing.T) {
	tool := staticTool{
		name:   "computer",
		schema: `{"type":"object","properties":{"action":{"type":"string"}},"required":["action"]}`,
	}

	param, err := ToAnthropicBetaTool(tool)
	if err != nil {
		t.Fatalf("ToAnthropicBetaTool failed: %v", err)
	}
	if param.OfTool == nil {
		t.Fatal("expected a plain tool definition")
	}
	if got := param.OfTool.Name; got != "computer" {
		t.Errorf("Name = %q, want computer", got)
	}
	if got := param.OfTool.Description.Value; got != "does computer" {
		t.Errorf("Description = %q, want %q", got, "does computer")
	}
}

func TestToAnthropicBetaToolRejectsBadSchema(t *testing.T) {
	tool := staticTool{name: "broken", schema: `{not json`}

	if _, err := ToAnthropicBetaTool(tool); err == nil {
		t.Error("expected error for malformed schema")
	}
}

func TestComputerUseBetaTool(t *testing.T) {
	param := ComputerUseBetaTool(ComputerUseDisplay{WidthPx: 1280, HeightPx: 800, DisplayNumber: 1})

	cu := param.OfComputerUseTool20241022
	if cu == nil {
		t.Fatal("expected a computer-use tool definition")
	}
	if cu.DisplayWidthPx != 1280 || cu.DisplayHeightPx != 800 {
		t.Errorf("display = %dx%d, want 1280x800", cu.DisplayWidthPx, cu.DisplayHeightPx)
	}
	if !cu.DisplayNumber.Valid() || cu.DisplayNumber.Value != 1 {
		t.Errorf("DisplayNumber = %+v, want 1", cu.DisplayNumber)
	}
}

func TestComputerUseBetaToolOmitsZeroDisplay(t *testing.T) {
	param := ComputerUseBetaTool(ComputerUseDisplay{WidthPx: 1024, HeightPx: 768})

	cu := param.OfComputerUseTool20241022
	if cu == nil {
		t.Fatal("expected a computer-use tool definition")
	}
	if cu.DisplayNumber.Valid() {
		t.Errorf("DisplayNumber = %+v, want unset", cu.DisplayNumber)
	}
}
