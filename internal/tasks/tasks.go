// package tasks implements the emoji migration steps: list, download, upload and export.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emx/internal/formatter"
	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/services"
	"github.com/desertthunder/emx/internal/shared"
)

// ExportListFile is where export always writes the intermediate emoji list.
const ExportListFile = "emoji_list.json"

// Ledger persists run history. Implementations are optional; see [Engine.ledger].
type Ledger interface {
	StartRun(run *models.Run) error
	RecordItem(item *models.RunItem) error
	FinishRun(run *models.Run) error
}

// ExportResult contains all data from a full export.
type ExportResult struct {
	Catalog  models.Catalog
	Download *FetchReport
	Upload   *PublishReport
}

// Engine orchestrates the migration steps.
//
// Directory is required for list, download (when the list file is missing) and export.
// Publisher is required for upload and export.
type Engine struct {
	directory services.Directory
	fetcher   *Fetcher
	publisher *Publisher
	ledger    Ledger
	out       io.Writer
	logger    *log.Logger

	destination string
}

// EngineOpts wires an [Engine].
type EngineOpts struct {
	Directory   services.Directory
	Fetcher     *Fetcher
	Publisher   *Publisher
	Ledger      Ledger    // Optional run history
	Output      io.Writer // Summary lines
	Logger      *log.Logger
	Destination string // Label recorded for upload runs, usually the team id
}

// NewEngine creates an [Engine].
func NewEngine(opts EngineOpts) *Engine {
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(nil, FetchOpts{}, opts.Logger)
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Engine{
		directory:   opts.Directory,
		fetcher:     opts.Fetcher,
		publisher:   opts.Publisher,
		ledger:      opts.Ledger,
		out:         opts.Output,
		logger:      opts.Logger,
		destination: opts.Destination,
	}
}

// List fetches the source catalog and writes it to listPath.
func (e *Engine) List(ctx context.Context, listPath string, prog chan<- ProgressUpdate) (models.Catalog, error) {
	if e.directory == nil {
		return nil, fmt.Errorf("%w: emoji directory not configured", shared.ErrServiceUnavailable)
	}

	sendProgress(prog, listingUpdate())
	catalog, err := e.directory.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if err := formatter.WriteCatalog(catalog, listPath); err != nil {
		return nil, err
	}

	sendProgress(prog, listedUpdate(len(catalog)))
	fmt.Fprintf(e.out, "Found %d custom emoji (aliases excluded), saved to %s\n", len(catalog), listPath)
	return catalog, nil
}

// Download loads the catalog from listPath, or lists it first when the file does not exist,
// then downloads every entry into outputDir.
func (e *Engine) Download(ctx context.Context, listPath, outputDir string, prog chan<- ProgressUpdate) (*FetchReport, error) {
	catalog, err := e.catalogFor(ctx, listPath, prog)
	if err != nil {
		return nil, err
	}
	return e.download(ctx, catalog, listPath, outputDir, prog)
}

func (e *Engine) catalogFor(ctx context.Context, listPath string, prog chan<- ProgressUpdate) (models.Catalog, error) {
	if _, err := os.Stat(listPath); errors.Is(err, fs.ErrNotExist) {
		e.logger.Info("Emoji list not found, fetching", "path", listPath)
		return e.List(ctx, listPath, prog)
	}
	return formatter.LoadCatalog(listPath)
}

func (e *Engine) download(ctx context.Context, catalog models.Catalog, source, outputDir string, prog chan<- ProgressUpdate) (*FetchReport, error) {
	run := e.startRun(models.RunKindDownload, source, outputDir)

	report, err := e.fetcher.FetchAll(ctx, catalog, outputDir, prog)
	if report != nil {
		for _, asset := range report.Assets {
			e.recordItem(run, models.RunItem{
				Name:     asset.Name,
				Stage:    models.StageDownload,
				Outcome:  models.OutcomeSucceeded,
				Attempts: 1,
				FilePath: asset.Path,
			})
		}
		for _, fe := range report.Failures {
			e.recordItem(run, models.RunItem{
				Name:         fe.Name,
				Stage:        models.StageDownload,
				Outcome:      models.OutcomeFailed,
				Attempts:     1,
				ErrorMessage: fe.Err.Error(),
			})
		}
		e.finishRun(run, report.Total, report.Succeeded(), report.Failed(), err)
	} else {
		e.finishRun(run, len(catalog), 0, 0, err)
	}
	if err != nil {
		return report, err
	}

	fmt.Fprintf(e.out, "Downloaded %d of %d emoji to %s\n", report.Succeeded(), report.Total, outputDir)
	if report.Failed() > 0 {
		fmt.Fprintf(e.out, "%d %s failed\n", report.Failed(), shared.Pluralize(report.Failed(), "download", "downloads"))
	}
	return report, nil
}

// Upload publishes every image in dir to the destination workspace.
func (e *Engine) Upload(ctx context.Context, dir string, prog chan<- ProgressUpdate) (*PublishReport, error) {
	if e.publisher == nil {
		return nil, fmt.Errorf("%w: emoji uploader not configured", shared.ErrServiceUnavailable)
	}

	assets, err := ScanAssets(dir)
	if err != nil {
		return nil, err
	}

	run := e.startRun(models.RunKindUpload, dir, e.destination)
	report, err := e.publisher.Publish(ctx, dir, assets, prog)
	for _, item := range report.RunItems() {
		e.recordItem(run, item)
	}
	e.finishRun(run, len(assets), report.Succeeded, report.Failed, err)
	if err != nil {
		return report, err
	}

	fmt.Fprintf(e.out, "Uploaded %d, failed %d (of %d)\n", report.Succeeded, report.Failed, len(assets))
	return report, nil
}

// Export runs list, download and upload back to back, always refreshing [ExportListFile].
func (e *Engine) Export(ctx context.Context, outputDir string, prog chan<- ProgressUpdate) (*ExportResult, error) {
	if e.publisher == nil {
		return nil, fmt.Errorf("%w: emoji uploader not configured", shared.ErrServiceUnavailable)
	}

	result := &ExportResult{}

	catalog, err := e.List(ctx, ExportListFile, prog)
	if err != nil {
		return nil, err
	}
	result.Catalog = catalog

	result.Download, err = e.download(ctx, catalog, ExportListFile, outputDir, prog)
	if err != nil {
		return result, err
	}

	result.Upload, err = e.Upload(ctx, outputDir, prog)
	if err != nil {
		return result, err
	}

	sendProgress(prog, ProgressUpdate{Phase: Done, Message: "Export complete"})
	return result, nil
}

// startRun records a new run, returning nil when there is no ledger or it fails.
func (e *Engine) startRun(kind models.RunKind, source, destination string) *models.Run {
	if e.ledger == nil {
		return nil
	}
	run := models.NewRun(kind, source, destination)
	if err := e.ledger.StartRun(run); err != nil {
		e.logger.Warn("Failed to record run", "kind", kind, "error", err)
		return nil
	}
	return run
}

func (e *Engine) recordItem(run *models.Run, item models.RunItem) {
	if run == nil {
		return
	}
	item.RunID = run.ID
	if err := e.ledger.RecordItem(&item); err != nil {
		e.logger.Warn("Failed to record item", "emoji", item.Name, "error", err)
	}
}

func (e *Engine) finishRun(run *models.Run, total, succeeded, failed int, err error) {
	if run == nil {
		return
	}
	run.Complete(total, succeeded, failed, err)
	if err := e.ledger.FinishRun(run); err != nil {
		e.logger.Warn("Failed to finish run", "id", run.ID, "error", err)
	}
}
