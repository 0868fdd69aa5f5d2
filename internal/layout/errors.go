package layout

import "fmt"

// State is the flow's position in a render.
type State int

const (
	Idle State = iota
	RenderingNode
	AwaitingMedia
	PageBreakPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RenderingNode:
		return "rendering_node"
	case AwaitingMedia:
		return "awaiting_media"
	case PageBreakPending:
		return "page_break_pending"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PipelineError reports a failed render. No document is returned with it.
type PipelineError struct {
	Stage string // flow state at the failure
	Path  string // question being laid out, e.g. "2.b.i"
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("layout failed in %s at question %s: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("layout failed in %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
