package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase     Phase  // Operation phase
	Step      int    // Current step number within phase
	Total     int    // Total steps in this phase
	Name      string // Emoji the update refers to, if any
	Completed bool   // An emoji finished this phase
	Failed    bool   // The finished emoji failed
	Message   string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ListCatalog Phase = iota
	DownloadAssets
	UploadAssets
	Done
)

func (p Phase) String() string {
	switch p {
	case ListCatalog:
		return "list"
	case DownloadAssets:
		return "download"
	case UploadAssets:
		return "upload"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func listingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListCatalog,
		Step:    0,
		Total:   1,
		Message: "Fetching emoji list...",
	}
}

func listedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d custom emoji", count),
	}
}

func downloadedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:     DownloadAssets,
		Step:      step,
		Total:     total,
		Name:      name,
		Completed: true,
		Message:   fmt.Sprintf("[%d/%d] ✓ Downloaded %s", step, total, name),
	}
}

func downloadFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:     DownloadAssets,
		Step:      step,
		Total:     total,
		Name:      name,
		Completed: true,
		Failed:    true,
		Message:   fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func uploadingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadAssets,
		Step:    step - 1,
		Total:   total,
		Name:    name,
		Message: fmt.Sprintf("[%d/%d] Uploading %s...", step, total, name),
	}
}

func uploadedUpdate(step, total int, o PublishOutcome) ProgressUpdate {
	if o.State == Success {
		return ProgressUpdate{
			Phase:     UploadAssets,
			Step:      step,
			Total:     total,
			Name:      o.Name,
			Completed: true,
			Message:   fmt.Sprintf("[%d/%d] ✓ Uploaded %s", step, total, o.Name),
		}
	}
	return ProgressUpdate{
		Phase:     UploadAssets,
		Step:      step,
		Total:     total,
		Name:      o.Name,
		Completed: true,
		Failed:    true,
		Message:   fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, o.Name, o.Err),
	}
}
