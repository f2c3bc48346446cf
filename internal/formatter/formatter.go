// package formatter reads and writes the on-disk artifacts: the emoji list JSON and the upload CSV report
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
)

// ReportHeaders are the columns of the upload report.
var ReportHeaders = []string{"name", "file", "status", "attempts", "error"}

// MarshalCatalog encodes a catalog as 2-space indented JSON with a trailing newline.
func MarshalCatalog(catalog models.Catalog) ([]byte, error) {
	if catalog == nil {
		catalog = models.Catalog{}
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode emoji list: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteCatalog persists the catalog to path, creating parent directories as needed.
func WriteCatalog(catalog models.Catalog, path string) error {
	data, err := MarshalCatalog(catalog)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write emoji list: %w", err)
	}
	return nil
}

// LoadCatalog reads a catalog written by [WriteCatalog].
//
// A missing or unparseable file wraps [shared.ErrArtifact]. Alias values that were
// added to the file by hand are dropped.
func LoadCatalog(path string) (models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", shared.ErrArtifact, path)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrArtifact, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrArtifact, path, err)
	}
	return models.NewCatalog(raw), nil
}

// ExportReportCSV renders upload outcomes with the columns in [ReportHeaders].
func ExportReportCSV(items []models.RunItem) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport streams upload outcomes as CSV to w.
func WriteReport(w io.Writer, items []models.RunItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ReportHeaders); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.Name,
			item.FilePath,
			string(item.Outcome),
			strconv.Itoa(item.Attempts),
			item.ErrorMessage,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// WriteReportFile writes the upload report to path.
func WriteReportFile(items []models.RunItem, path string) error {
	data, err := ExportReportCSV(items)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
