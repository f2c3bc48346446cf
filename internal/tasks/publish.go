package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/services"
	"github.com/desertthunder/emx/internal/shared"
)

// AttemptState is the state of a single upload in the retry state machine.
type AttemptState int

const (
	Attempting AttemptState = iota
	Success
	RateLimited
	TransientError
	FatalError
)

func (s AttemptState) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Success:
		return "success"
	case RateLimited:
		return "rate_limited"
	case TransientError:
		return "transient_error"
	case FatalError:
		return "fatal_error"
	default:
		return ""
	}
}

// PublishConfig holds the retry and pacing parameters for uploads.
type PublishConfig struct {
	MaxAttempts    int           // Attempts per emoji, including the first
	InitialBackoff time.Duration // Wait after the first failed attempt; doubles each retry
	PaceBase       time.Duration // Fixed wait between emoji
	JitterMin      time.Duration // Lower bound of the random extra wait between emoji
	JitterMax      time.Duration // Upper bound (exclusive)
}

// DefaultPublishConfig returns 5 attempts starting at 1s backoff, paced 1s + [0.5s, 2s).
func DefaultPublishConfig() PublishConfig {
	return PublishConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		PaceBase:       time.Second,
		JitterMin:      500 * time.Millisecond,
		JitterMax:      2 * time.Second,
	}
}

// PublishConfigFrom converts the [upload] config section.
func PublishConfigFrom(c shared.UploadConfig) PublishConfig {
	return PublishConfig{
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff,
		PaceBase:       c.PaceBase,
		JitterMin:      c.JitterMin,
		JitterMax:      c.JitterMax,
	}
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default [SleepFunc].
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PublishOutcome is the final result of uploading one emoji.
type PublishOutcome struct {
	Name     string
	FilePath string
	State    AttemptState // Success or FatalError
	Attempts int
	Err      error
}

// RunItem converts the outcome for the run ledger and CSV report.
func (o PublishOutcome) RunItem() models.RunItem {
	item := models.RunItem{
		Name:     o.Name,
		Stage:    models.StageUpload,
		Outcome:  models.OutcomeSucceeded,
		Attempts: o.Attempts,
		FilePath: o.FilePath,
	}
	if o.State != Success {
		item.Outcome = models.OutcomeFailed
		if o.Err != nil {
			item.ErrorMessage = o.Err.Error()
		}
	}
	return item
}

// PublishReport summarises a directory upload.
type PublishReport struct {
	Directory string
	Outcomes  []PublishOutcome
	Succeeded int
	Failed    int
}

// RunItems returns every outcome as a [models.RunItem].
func (r *PublishReport) RunItems() []models.RunItem {
	items := make([]models.RunItem, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		items = append(items, o.RunItem())
	}
	return items
}

// Publisher uploads local images one at a time with retry and pacing.
type Publisher struct {
	uploader services.Uploader
	cfg      PublishConfig
	sleep    SleepFunc
	random   func() float64
	out      io.Writer
	logger   *log.Logger
}

// PublisherOpts injects the publisher's side effects. Zero values use real implementations.
type PublisherOpts struct {
	Config PublishConfig
	Sleep  SleepFunc
	Rand   func() float64 // Uniform in [0, 1)
	Output io.Writer      // Receives the per-item ✓/✗ lines
	Logger *log.Logger
}

// NewPublisher creates a [Publisher] for uploader.
func NewPublisher(uploader services.Uploader, opts PublisherOpts) *Publisher {
	if opts.Config.MaxAttempts <= 0 {
		opts.Config = DefaultPublishConfig()
	}
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Publisher{
		uploader: uploader,
		cfg:      opts.Config,
		sleep:    opts.Sleep,
		random:   opts.Rand,
		out:      opts.Output,
		logger:   opts.Logger,
	}
}

// ScanAssets lists the images directly inside dir, sorted by file name.
func ScanAssets(dir string) ([]models.LocalAsset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var assets []models.LocalAsset
	for _, entry := range entries {
		if entry.IsDir() || !models.IsImageFile(entry.Name()) {
			continue
		}
		assets = append(assets, models.AssetFromPath(filepath.Join(dir, entry.Name())))
	}

	slices.SortFunc(assets, func(a, b models.LocalAsset) int {
		return strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path))
	})
	return assets, nil
}

// classify maps one attempt's response onto the retry state machine.
func classify(res *services.UploadResult, err error) AttemptState {
	switch {
	case err != nil && errors.Is(err, shared.ErrPublishFatal):
		return FatalError
	case err != nil:
		return TransientError
	case res.Status == http.StatusTooManyRequests || res.Code == "ratelimited":
		return RateLimited
	case res.Status != http.StatusOK:
		return TransientError
	case res.OK:
		return Success
	default:
		return FatalError
	}
}

// PublishOne uploads a single asset, retrying rate limits and transient failures with
// exponential backoff until [PublishConfig.MaxAttempts] is reached.
func (p *Publisher) PublishOne(ctx context.Context, asset models.LocalAsset) PublishOutcome {
	logger := shared.WithLogger(p.logger, "emoji", asset.Name)
	outcome := PublishOutcome{Name: asset.Name, FilePath: asset.Path, State: Attempting}
	backoff := p.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		outcome.Attempts = attempt

		res, err := p.uploader.AddEmoji(ctx, asset.Name, asset.Path)
		state := classify(res, err)

		switch state {
		case Success:
			outcome.State = Success
			return outcome
		case FatalError:
			outcome.State = FatalError
			if err == nil {
				err = fmt.Errorf("%w: %w", shared.ErrPublishFatal, uploadAPIError(res))
			}
			outcome.Err = err
			return outcome
		}

		if err == nil {
			err = fmt.Errorf("%w: %w", shared.ErrPublishTransient, uploadAPIError(res))
		}
		lastErr = err

		if attempt == p.cfg.MaxAttempts {
			break
		}

		logger.Warn("Retrying upload", "state", state, "attempt", attempt, "backoff", backoff, "error", err)
		if err := p.sleep(ctx, backoff); err != nil {
			outcome.State = FatalError
			outcome.Err = err
			return outcome
		}
		backoff *= 2
	}

	outcome.State = FatalError
	outcome.Err = fmt.Errorf("%w: gave up after %d attempts: %w", shared.ErrPublishFatal, p.cfg.MaxAttempts, lastErr)
	return outcome
}

func uploadAPIError(res *services.UploadResult) *services.APIError {
	return &services.APIError{Method: "emoji.add", Status: res.Status, Code: res.Code}
}

// pace returns the wait after each upload: base plus uniform jitter in [JitterMin, JitterMax).
func (p *Publisher) pace() time.Duration {
	span := p.cfg.JitterMax - p.cfg.JitterMin
	return p.cfg.PaceBase + p.cfg.JitterMin + time.Duration(p.random()*float64(span))
}

// PublishAll uploads every image in dir sequentially.
//
// Failed uploads are counted and reported without stopping the batch. An error is only
// returned when dir cannot be read or ctx is cancelled; the partial report is returned
// alongside the cancellation error.
func (p *Publisher) PublishAll(ctx context.Context, dir string, prog chan<- ProgressUpdate) (*PublishReport, error) {
	assets, err := ScanAssets(dir)
	if err != nil {
		return nil, err
	}
	return p.Publish(ctx, dir, assets, prog)
}

// Publish uploads the given assets in order.
func (p *Publisher) Publish(ctx context.Context, dir string, assets []models.LocalAsset, prog chan<- ProgressUpdate) (*PublishReport, error) {
	report := &PublishReport{Directory: dir, Outcomes: make([]PublishOutcome, 0, len(assets))}

	for i, asset := range assets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sendProgress(prog, uploadingUpdate(i+1, len(assets), asset.Name))

		outcome := p.PublishOne(ctx, asset)
		if ctx.Err() != nil && outcome.State != Success {
			return report, ctx.Err()
		}

		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.State == Success {
			report.Succeeded++
			fmt.Fprintf(p.out, "✓ Uploaded: %s\n", asset.Name)
		} else {
			report.Failed++
			fmt.Fprintf(p.out, "✗ Error uploading %s: %v\n", asset.Name, outcome.Err)
			p.logger.Error("Upload failed", "emoji", asset.Name, "attempts", outcome.Attempts, "error", outcome.Err)
		}
		sendProgress(prog, uploadedUpdate(i+1, len(assets), outcome))

		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.sleep(ctx, p.pace()); err != nil {
			return report, err
		}
	}

	return report, nil
}
