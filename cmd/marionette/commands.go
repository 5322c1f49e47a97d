package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/marionette/internal/computer"
	"github.com/haasonsaas/marionette/internal/sandbox"
	"github.com/haasonsaas/marionette/internal/tools/computeruse"
	"github.com/haasonsaas/marionette/internal/tools/toolconv"
)

// newTool builds a computer-use tool bound to the given container.
func newTool(a *app, sandboxID string) *computeruse.Tool {
	runner := sandbox.NewDockerRunner()
	runner.ExecTimeout = a.cfg.Sandbox.ExecTimeout

	opts := []computer.Option{
		computer.WithOutputDir(a.cfg.Computer.OutputDir),
		computer.WithScreenshotDelay(a.cfg.Computer.ScreenshotDelay),
		computer.WithTypingDelay(a.cfg.Computer.TypingDelay),
		computer.WithTypingChunkSize(a.cfg.Computer.TypingChunkSize),
		computer.WithLogger(a.logger),
	}
	if a.cfg.Computer.ScalingEnabled != nil {
		opts = append(opts, computer.WithScaling(*a.cfg.Computer.ScalingEnabled))
	}
	if a.metrics != nil {
		opts = append(opts, computer.WithMetrics(a.metrics))
	}
	session := computer.NewSession(runner, sandboxID, opts...)

	toolOpts := []computeruse.Option{computeruse.WithLogger(a.logger)}
	if a.metrics != nil {
		toolOpts = append(toolOpts, computeruse.WithMetrics(a.metrics))
	}
	if a.tracer != nil {
		toolOpts = append(toolOpts, computeruse.WithTracer(a.tracer))
	}
	return computeruse.NewTool(session, toolOpts...)
}

// buildActCmd dispatches actions from JSON parameters: one object via
// --params, or one object per line on stdin so a session (and its geometry)
// spans multiple actions.
func buildActCmd(a *app) *cobra.Command {
	var sandboxID string
	var rawParams string
	var screenshotOut string

	cmd := &cobra.Command{
		Use:   "act",
		Short: "Dispatch computer-use actions against a container",
		Example: `  marionette act --sandbox my-container --params '{"action":"get_screen_info"}'
  echo '{"action":"left_click"}' | marionette act --sandbox my-container`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := newTool(a, sandboxID)

			if rawParams != "" {
				return runAction(cmd, tool, rawParams, screenshotOut)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := runAction(cmd, tool, line, screenshotOut); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&sandboxID, "sandbox", "", "Container id or name (required)")
	cmd.Flags().StringVar(&rawParams, "params", "", "Action parameters as a JSON object")
	cmd.Flags().StringVar(&screenshotOut, "screenshot-out", "", "Write the last screenshot to this file")
	_ = cmd.MarkFlagRequired("sandbox")
	return cmd
}

func runAction(cmd *cobra.Command, tool *computeruse.Tool, rawParams, screenshotOut string) error {
	result, err := tool.Execute(cmd.Context(), json.RawMessage(rawParams))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Content)
	if result.IsError {
		return fmt.Errorf("action failed")
	}

	if screenshotOut != "" {
		for _, artifact := range result.Artifacts {
			if artifact.Type == "screenshot" {
				if err := os.WriteFile(screenshotOut, artifact.Data, 0o644); err != nil {
					return fmt.Errorf("write screenshot: %w", err)
				}
			}
		}
	}
	return nil
}

// buildScreenInfoCmd queries the container display geometry.
func buildScreenInfoCmd(a *app) *cobra.Command {
	var sandboxID string

	cmd := &cobra.Command{
		Use:   "screen-info",
		Short: "Query the container's display geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := newTool(a, sandboxID)
			return runAction(cmd, tool, `{"action":"get_screen_info"}`, "")
		},
	}

	cmd.Flags().StringVar(&sandboxID, "sandbox", "", "Container id or name (required)")
	_ = cmd.MarkFlagRequired("sandbox")
	return cmd
}

// buildScreenshotCmd captures the container screen to a local file.
func buildScreenshotCmd(a *app) *cobra.Command {
	var sandboxID string
	var out string

	cmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Capture the container screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := newTool(a, sandboxID)
			if err := runAction(cmd, tool, `{"action":"get_screen_info"}`, out); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sandboxID, "sandbox", "", "Container id or name (required)")
	cmd.Flags().StringVar(&out, "out", "screenshot.png", "Output PNG path")
	return cmd
}

// buildToolDefCmd prints the Anthropic tool definition for the container's
// display, establishing geometry first so the advertised size is the one the
// agent will work in. With --generic it prints a plain schema-based tool
// definition instead of the native computer-use tool; no geometry is needed
// for that, the schema is display-independent.
func buildToolDefCmd(a *app) *cobra.Command {
	var sandboxID string
	var generic bool

	cmd := &cobra.Command{
		Use:   "tool-def",
		Short: "Print the Anthropic computer-use tool definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := newTool(a, sandboxID)

			if generic {
				param, err := toolconv.ToAnthropicBetaTool(tool)
				if err != nil {
					return err
				}
				return printJSON(cmd, param)
			}

			result, err := tool.Execute(cmd.Context(), json.RawMessage(`{"action":"get_screen_info"}`))
			if err != nil {
				return err
			}
			if result.IsError {
				return fmt.Errorf("get_screen_info failed: %s", result.Content)
			}

			width, height, displayNumber, ok := tool.DisplayOptions()
			if !ok {
				return fmt.Errorf("display geometry unavailable")
			}
			return printJSON(cmd, toolconv.ComputerUseBetaTool(toolconv.ComputerUseDisplay{
				WidthPx:       width,
				HeightPx:      height,
				DisplayNumber: displayNumber,
			}))
		},
	}

	cmd.Flags().StringVar(&sandboxID, "sandbox", "", "Container id or name (required)")
	cmd.Flags().BoolVar(&generic, "generic", false, "Emit a schema-based tool definition instead of the native computer-use tool")
	_ = cmd.MarkFlagRequired("sandbox")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
