// Slack emoji.list client
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
	"golang.org/x/oauth2"
)

const DefaultDirectoryURL = "https://slack.com/api/emoji.list"

// authErrorCodes are emoji.list error codes caused by the credential rather than the service.
var authErrorCodes = []string{
	"not_authed",
	"invalid_auth",
	"token_revoked",
	"token_expired",
	"account_inactive",
	"missing_scope",
}

type emojiListResponse struct {
	slackResponse
	Emoji map[string]string `json:"emoji"`
}

// DirectoryClient implements [Directory] against Slack's emoji.list method.
type DirectoryClient struct {
	endpoint   string
	httpClient *http.Client
}

// DirectoryOpts configures a [DirectoryClient].
type DirectoryOpts struct {
	Endpoint   string       // Defaults to [DefaultDirectoryURL]
	HTTPClient *http.Client // Base client wrapped by the oauth2 transport
}

// NewDirectoryClient creates a client that authenticates every request with token as a bearer credential.
func NewDirectoryClient(ctx context.Context, token string, opts DirectoryOpts) (*DirectoryClient, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: source token is required", shared.ErrMissingCredentials)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultDirectoryURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient(DefaultHTTPConfig())
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})

	return &DirectoryClient{
		endpoint:   opts.Endpoint,
		httpClient: oauth2.NewClient(ctx, src),
	}, nil
}

// ListCatalog fetches the workspace's custom emoji and drops alias entries.
func (d *DirectoryClient) ListCatalog(ctx context.Context) (models.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrRemote, err)
	}
	defer resp.Body.Close()

	var body emojiListResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Method: "emoji.list", Status: resp.StatusCode, Code: body.Error}
		return nil, fmt.Errorf("%w: %w", shared.ErrRemote, apiErr)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", shared.ErrRemote, decodeErr)
	}

	if !body.OK {
		code := body.Error
		if code == "" {
			code = "unknown_error"
		}
		apiErr := &APIError{Method: "emoji.list", Status: resp.StatusCode, Code: code}
		if slices.Contains(authErrorCodes, code) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuth, apiErr)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrRemote, apiErr)
	}

	return models.NewCatalog(body.Emoji), nil
}
