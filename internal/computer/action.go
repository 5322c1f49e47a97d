package computer

import "fmt"

// Action is one kind of computer-use action. The set is closed; Dispatch
// rejects anything else with ErrInvalidAction.
type Action string

const (
	ActionKey            Action = "key"
	ActionType           Action = "type"
	ActionMouseMove      Action = "mouse_move"
	ActionLeftClick      Action = "left_click"
	ActionLeftClickDrag  Action = "left_click_drag"
	ActionRightClick     Action = "right_click"
	ActionMiddleClick    Action = "middle_click"
	ActionDoubleClick    Action = "double_click"
	ActionScreenshot     Action = "screenshot"
	ActionCursorPosition Action = "cursor_position"
	ActionScrollUp       Action = "scroll_up"
	ActionScrollDown     Action = "scroll_down"
	ActionGetScreenInfo  Action = "get_screen_info"
)

// Actions lists every supported action kind in schema order.
func Actions() []Action {
	return []Action{
		ActionKey,
		ActionType,
		ActionMouseMove,
		ActionLeftClick,
		ActionLeftClickDrag,
		ActionRightClick,
		ActionMiddleClick,
		ActionDoubleClick,
		ActionScreenshot,
		ActionCursorPosition,
		ActionScrollUp,
		ActionScrollDown,
		ActionGetScreenInfo,
	}
}

// Request is one action invocation. Text and Coordinate are optional payloads
// whose presence is constrained per action kind.
type Request struct {
	Action     Action
	Text       string
	HasText    bool
	Coordinate []int
}

// validate enforces the per-kind argument contract. It does not touch
// geometry; geometry checks happen in Dispatch where ordering matters.
func (r Request) validate() error {
	switch r.Action {
	case ActionMouseMove, ActionLeftClickDrag:
		if r.Coordinate == nil {
			return fmt.Errorf("%w: coordinate is required for %s", ErrInvalidArgument, r.Action)
		}
		if r.HasText {
			return fmt.Errorf("%w: text is not accepted for %s", ErrInvalidArgument, r.Action)
		}
		if len(r.Coordinate) != 2 {
			return fmt.Errorf("%w: coordinate must be a pair, got %d values", ErrInvalidArgument, len(r.Coordinate))
		}
		if r.Coordinate[0] < 0 || r.Coordinate[1] < 0 {
			return fmt.Errorf("%w: coordinate values must be non-negative", ErrInvalidArgument)
		}
		return nil
	case ActionKey, ActionType:
		if r.Coordinate != nil {
			return fmt.Errorf("%w: coordinate is not accepted for %s", ErrInvalidArgument, r.Action)
		}
		if !r.HasText {
			return fmt.Errorf("%w: text is required for %s", ErrInvalidArgument, r.Action)
		}
		return nil
	case ActionLeftClick, ActionRightClick, ActionMiddleClick, ActionDoubleClick,
		ActionScreenshot, ActionCursorPosition, ActionScrollUp, ActionScrollDown:
		if r.HasText {
			return fmt.Errorf("%w: text is not accepted for %s", ErrInvalidArgument, r.Action)
		}
		if r.Coordinate != nil {
			return fmt.Errorf("%w: coordinate is not accepted for %s", ErrInvalidArgument, r.Action)
		}
		return nil
	case ActionGetScreenInfo:
		// Bootstrap entry point; payloads are ignored rather than rejected.
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAction, r.Action)
	}
}
