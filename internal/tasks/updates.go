package tasks

import (
	"fmt"

	"github.com/desertthunder/linkbox/internal/formatter"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchBookmarks Phase = iota
	ImportBookmarks
	ExportBookmarks
)

func (p Phase) String() string {
	switch p {
	case FetchBookmarks:
		return "fetch_bookmarks"
	case ImportBookmarks:
		return "import_bookmarks"
	case ExportBookmarks:
		return "export_bookmarks"
	default:
		return ""
	}
}

func fetchingBookmarksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchBookmarks,
		Step:    step,
		Total:   total,
		Message: "Fetching bookmarks...",
	}
}

func foundBookmarksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchBookmarks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %d bookmarks", count),
		Data:    count,
	}
}

func importingUpdate(step, total int, entry formatter.Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportBookmarks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, entry.Title),
		Data:    entry,
	}
}

func importSkippedUpdate(step, total int, entry formatter.Entry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportBookmarks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] - %s (already saved)", step, total, entry.Title),
		Data:    entry,
	}
}

func importFailedUpdate(step, total int, entry formatter.Entry, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportBookmarks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, entry.Title, err),
		Data:    entry,
	}
}

func exportCompletedUpdate(step, total int, f formatter.Format, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportBookmarks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, f, file),
	}
}

func exportFailedUpdate(step, total int, f formatter.Format, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportBookmarks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, f, err),
	}
}
