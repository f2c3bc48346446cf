package main

import (
	"context"

	"github.com/desertthunder/emx/internal/formatter"
	"github.com/desertthunder/emx/internal/shared"
	"github.com/desertthunder/emx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// List fetches the source catalog and writes the emoji list file.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	engine, done, err := r.newEngine(ctx, cmd, engineNeeds{directory: true})
	if err != nil {
		return err
	}
	defer done()

	listPath := shared.FirstNonEmpty(cmd.String("output-file"), r.config.Paths.ListFile)
	_, err = engine.List(ctx, listPath, nil)
	return err
}

// Download fetches every image named in the emoji list, listing first when the file is missing.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	engine, done, err := r.newEngine(ctx, cmd, engineNeeds{directory: true})
	if err != nil {
		return err
	}
	defer done()

	listPath := shared.FirstNonEmpty(cmd.String("emoji-list"), r.config.Paths.ListFile)
	outputDir := shared.FirstNonEmpty(cmd.String("output-dir"), r.config.Paths.OutputDir)

	report, err := engine.Download(ctx, listPath, outputDir, nil)
	if err != nil {
		return err
	}
	r.logger.Debug("download finished", "dir", report.Directory, "succeeded", report.Succeeded(), "failed", report.Failed())
	return nil
}

// Upload publishes every image in a directory, or lists them with --dry-run.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	dir := shared.FirstNonEmpty(cmd.String("emoji-dir"), r.config.Paths.OutputDir)

	if cmd.Bool("dry-run") {
		return r.uploadDryRun(dir)
	}

	engine, done, err := r.newEngine(ctx, cmd, engineNeeds{publisher: true})
	if err != nil {
		return err
	}
	defer done()

	report, err := engine.Upload(ctx, dir, nil)
	if report != nil {
		if rerr := r.writeReport(cmd, report); rerr != nil {
			r.logger.Error("report not written", "path", cmd.String("report"), "error", rerr)
		}
	}
	return err
}

func (r *Runner) uploadDryRun(dir string) error {
	assets, err := tasks.ScanAssets(dir)
	if err != nil {
		return err
	}

	r.writePlain("Would upload %d %s from %s\n", len(assets), shared.Pluralize(len(assets), "image", "images"), dir)
	for _, asset := range assets {
		r.writePlain("  %-32s %s\n", asset.Name, asset.Path)
	}
	return nil
}

// Export lists, downloads and uploads in one pass. The list is always written to [tasks.ExportListFile].
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	engine, done, err := r.newEngine(ctx, cmd, engineNeeds{directory: true, publisher: true})
	if err != nil {
		return err
	}
	defer done()

	outputDir := shared.FirstNonEmpty(cmd.String("output-dir"), r.config.Paths.OutputDir)

	result, err := engine.Export(ctx, outputDir, nil)
	if result != nil && result.Upload != nil {
		if rerr := r.writeReport(cmd, result.Upload); rerr != nil {
			r.logger.Error("report not written", "path", cmd.String("report"), "error", rerr)
		}
	}
	return err
}

func (r *Runner) writeReport(cmd *cli.Command, report *tasks.PublishReport) error {
	path := cmd.String("report")
	if path == "" {
		return nil
	}

	if err := formatter.WriteReportFile(report.RunItems(), path); err != nil {
		return err
	}
	r.writePlain("Report saved to %s\n", path)
	return nil
}
