package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ListTracks Phase = iota
	CheckTracks
)

func (p Phase) String() string {
	switch p {
	case ListTracks:
		return "list_tracks"
	case CheckTracks:
		return "check_tracks"
	default:
		return ""
	}
}

func listTracksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d track(s) to check", total),
	}
}

func trackCheckedUpdate(step, total int, check TrackCheck) ProgressUpdate {
	mark := "✓"
	if check.Status != StatusOK {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   CheckTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, mark, check.Title, check.Status),
		Data:    check,
	}
}

// sendProgress delivers update without blocking; a full or nil channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
