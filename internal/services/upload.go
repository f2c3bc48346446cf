// Slack emoji.add client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/emx/internal/shared"
)

const DefaultUploadURL = "https://%s.slack.com/api/emoji.add"

// UploadResult is the remote verdict on one emoji.add attempt.
type UploadResult struct {
	Status int    // HTTP status code
	OK     bool   // "ok" field of the JSON body
	Code   string // "error" field of the JSON body
	Body   string // Raw body, kept for diagnostics when it is not JSON
}

// UploadClient implements [Uploader] using a browser session (cookie + xoxc token).
type UploadClient struct {
	endpoint  string
	cookie    string
	token     string
	newClient func() *http.Client
}

// UploadOpts configures an [UploadClient].
type UploadOpts struct {
	// Endpoint is either a URL or a pattern with one %s for the team. Defaults to [DefaultUploadURL].
	Endpoint string

	// NewClient returns the client for a single attempt. The default builds a new
	// transport with keep-alives disabled so no two attempts share a connection.
	NewClient func() *http.Client

	HTTP HTTPConfig
}

// NewUploadClient creates an uploader for the destination workspace.
func NewUploadClient(teamID, cookie, token string, opts UploadOpts) (*UploadClient, error) {
	var missing []string
	if teamID == "" {
		missing = append(missing, "team id")
	}
	if cookie == "" {
		missing = append(missing, "cookie")
	}
	if token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: destination %s", shared.ErrMissingCredentials, strings.Join(missing, ", "))
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultUploadURL
	}
	if strings.Contains(endpoint, "%s") {
		endpoint = fmt.Sprintf(endpoint, teamID)
	}

	if opts.NewClient == nil {
		cfg := opts.HTTP
		if cfg.Timeout == 0 {
			cfg = DefaultHTTPConfig()
		}
		cfg.DisableKeepAlives = true
		opts.NewClient = func() *http.Client { return NewHTTPClient(cfg) }
	}

	return &UploadClient{
		endpoint:  endpoint,
		cookie:    cookie,
		token:     token,
		newClient: opts.NewClient,
	}, nil
}

// Endpoint returns the resolved emoji.add URL.
func (u *UploadClient) Endpoint() string {
	return u.endpoint
}

// AddEmoji performs one emoji.add call.
//
// Failing to read the file wraps [shared.ErrPublishFatal]; failing to reach the server wraps
// [shared.ErrPublishTransient]. Any HTTP response, successful or not, is returned as an [UploadResult].
func (u *UploadClient) AddEmoji(ctx context.Context, name, filePath string) (*UploadResult, error) {
	body, contentType, err := u.encodeForm(name, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPublishFatal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrPublishFatal, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cookie", u.cookie)

	client := u.newClient()
	defer client.CloseIdleConnections()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrPublishTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrPublishTransient, err)
	}

	result := &UploadResult{Status: resp.StatusCode, Body: string(raw)}

	var envelope slackResponse
	if err := json.Unmarshal(raw, &envelope); err == nil {
		result.OK = envelope.OK
		result.Code = envelope.Error
	} else if resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("%w: failed to decode response: %w", shared.ErrPublishTransient, err)
	}

	return result, nil
}

// encodeForm opens filePath afresh and builds the multipart body: image, mode, name, token.
func (u *UploadClient) encodeForm(name, filePath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filepath.Base(filePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	for _, field := range [][2]string{{"mode", "data"}, {"name", name}, {"token", u.token}} {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write %s field: %w", field[0], err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
