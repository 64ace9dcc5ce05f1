// Package validation checks the files a cleaning run reads and writes
// before any work starts, so a bad path fails fast with a clear message
// instead of halfway through an export.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InputValidator validates run inputs and output locations.
type InputValidator struct {
	logger *slog.Logger
}

// NewInputValidator creates a validator. A nil logger falls back to the
// default slog logger.
func NewInputValidator(logger *slog.Logger) *InputValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputValidator{logger: logger}
}

// ValidateFile checks that path exists, is a regular file and is readable.
func (v *InputValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path points at a readable Excel workbook.
// Survey platforms export .xlsx; Excel's own "~$" lock files match the
// extension but are not workbooks.
func (v *InputValidator) ValidateWorkbook(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not an Excel workbook (extension: %s)", path, ext)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing Excel lock file", slog.String("file", path))
		return fmt.Errorf("file %s is an Excel lock file, not a workbook", path)
	}

	return nil
}

// ValidateCodeframe checks that path points at a readable YAML codeframe.
func (v *InputValidator) ValidateCodeframe(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		v.logger.Error("File is not a YAML codeframe",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a YAML codeframe (extension: %s)", path, ext)
	}

	return nil
}

// ValidateOutputDirectory ensures dir exists, creating it if needed, and
// proves it is writable before the pipeline spends minutes producing the
// data that would go there.
func (v *InputValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)

	return nil
}
