// Package tools defines the agent-facing tool contract: named tools with a
// JSON schema that execute against JSON parameters and return text results
// plus optional artifacts.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface implemented by agent-executable tools.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Schema returns the JSON schema for the tool parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters. Tool-level
	// failures are communicated via ToolResult with IsError set; the error
	// return is reserved for infrastructure failures.
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult contains the output from a tool execution.
//
// Results are sent back to the LLM which uses them to formulate its final
// response. Errors travel via IsError so the LLM can handle failures
// gracefully.
type ToolResult struct {
	// Content is the tool's output text.
	Content string `json:"content"`

	// IsError indicates this result represents an error condition.
	IsError bool `json:"is_error,omitempty"`

	// Artifacts contains any files/media produced by the tool.
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Artifact represents a file or media produced by a tool execution.
type Artifact struct {
	// ID is the unique identifier for the artifact.
	ID string `json:"id"`

	// Type describes the artifact type (screenshot, recording, file).
	Type string `json:"type"`

	// MimeType is the MIME type of the artifact data.
	MimeType string `json:"mime_type"`

	// Filename is the suggested filename for the artifact.
	Filename string `json:"filename,omitempty"`

	// Data contains the raw artifact bytes.
	Data []byte `json:"data,omitempty"`
}
