package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
	"golang.org/x/time/rate"
)

const DefaultWorkers = 10

// FetchOpts contains configuration for concurrent downloads.
type FetchOpts struct {
	Workers   int     // Concurrent workers (default: 10)
	RateLimit float64 // Requests per second across all workers; 0 disables throttling
}

// FetchError describes one emoji that could not be downloaded.
type FetchError struct {
	Name string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{shared.ErrFetch, e.Err}
}

// FetchReport lists what a batch download produced.
type FetchReport struct {
	Directory string
	Total     int
	Assets    []models.LocalAsset // Successful downloads in name order
	Failures  []*FetchError       // Failed downloads in name order
}

// Succeeded is the number of downloaded assets.
func (r *FetchReport) Succeeded() int { return len(r.Assets) }

// Failed is the number of skipped entries.
func (r *FetchReport) Failed() int { return len(r.Failures) }

type fetchJob struct {
	index int
	name  string
	url   string
}

type fetchResult struct {
	asset *models.LocalAsset
	err   *FetchError
}

// Fetcher downloads catalog entries with a bounded worker pool.
type Fetcher struct {
	client *http.Client
	opts   FetchOpts
	logger *log.Logger
}

// NewFetcher creates a [Fetcher]. A nil client uses [http.DefaultClient].
func NewFetcher(client *http.Client, opts FetchOpts, logger *log.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{client: client, opts: opts, logger: logger}
}

// FetchAll downloads every catalog entry into dir as <name><ext>.
//
// Individual failures are logged and reported without stopping the batch. Results are
// ordered by emoji name regardless of which worker finished first. An error is only
// returned when dir cannot be created or ctx is cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, catalog models.Catalog, dir string, prog chan<- ProgressUpdate) (*FetchReport, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	names := catalog.Names()
	report := &FetchReport{Directory: dir, Total: len(names)}
	if len(names) == 0 {
		return report, nil
	}

	limit := rate.Inf
	if f.opts.RateLimit > 0 {
		limit = rate.Limit(f.opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	workers := min(f.opts.Workers, len(names))
	jobs := make(chan fetchJob, len(names))
	done := make(chan int, len(names))
	results := make([]fetchResult, len(names))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go f.fetchWorker(ctx, &wg, limiter, dir, jobs, results, done)
	}

	for i, name := range names {
		jobs <- fetchJob{index: i, name: name, url: catalog[name]}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for i := range done {
		completed++
		if res := results[i]; res.err != nil {
			sendProgress(prog, downloadFailedUpdate(completed, len(names), res.err.Name, res.err.Err))
		} else {
			sendProgress(prog, downloadedUpdate(completed, len(names), res.asset.Name))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	for _, res := range results {
		switch {
		case res.asset != nil:
			report.Assets = append(report.Assets, *res.asset)
		case res.err != nil:
			report.Failures = append(report.Failures, res.err)
		}
	}
	return report, nil
}

// fetchWorker drains jobs, storing each outcome at its submission index.
func (f *Fetcher) fetchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	dir string,
	jobs <-chan fetchJob,
	results []fetchResult,
	done chan<- int,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		asset, err := f.fetchOne(ctx, dir, job.name, job.url)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fe := &FetchError{Name: job.name, URL: job.url, Err: err}
			f.logger.Error("Download failed", "emoji", job.name, "error", err)
			results[job.index] = fetchResult{err: fe}
		} else {
			f.logger.Debug("Downloaded", "emoji", job.name, "path", asset.Path)
			results[job.index] = fetchResult{asset: asset}
		}
		done <- job.index
	}
}

// fetchOne streams a single image to disk. Partial files are removed on failure.
func (f *Fetcher) fetchOne(ctx context.Context, dir, name, url string) (*models.LocalAsset, error) {
	if !models.SafeName(name) {
		return nil, fmt.Errorf("unsafe emoji name %q", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	ext := models.ExtensionFromURL(url)
	path := filepath.Join(dir, name+ext)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &models.LocalAsset{Name: name, Path: path, Extension: ext}, nil
}
