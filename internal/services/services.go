// package services defines the remote clients for the emoji directory and upload endpoints
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/emx/internal/models"
)

// Directory lists the custom emoji of a workspace.
type Directory interface {
	// ListCatalog returns every non-alias custom emoji keyed by name.
	ListCatalog(ctx context.Context) (models.Catalog, error)
}

// Uploader adds a single emoji image to a workspace.
type Uploader interface {
	// AddEmoji makes one upload attempt for the image at filePath under name.
	AddEmoji(ctx context.Context, name, filePath string) (*UploadResult, error)
}

// APIError describes a failed Slack Web API call.
type APIError struct {
	Method string // API method, e.g. emoji.list
	Status int    // HTTP status code
	Code   string // Slack error code from the JSON body, if any
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Status != http.StatusOK:
		return fmt.Sprintf("%s: status %d: %s", e.Method, e.Status, e.Code)
	case e.Code != "":
		return fmt.Sprintf("%s: %s", e.Method, e.Code)
	default:
		return fmt.Sprintf("%s: status %d", e.Method, e.Status)
	}
}

// slackResponse is the envelope shared by every Slack Web API response.
type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
