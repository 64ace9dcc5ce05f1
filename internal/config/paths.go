package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	RawDir        string
	OutputDir     string
	QADir         string
	LogsDir       string

	// Config files
	CodeframeFile string
	ConfigFile    string

	// Well-known artifacts
	RawWorkbook string
	SavFile     string
	QAWorkbook  string
	CleanCSV    string
	CodebookCSV string
}

// GetPaths returns the application paths relative to the executable location.
// Paths never depend on the current working directory, so the binaries behave
// the same whether launched from a shell, a scheduler, or a double-click.
// SURVEY_BASE_DIR overrides the executable directory wholesale, which is how
// tests and differing filesystem root conventions are accommodated.
func GetPaths() (*Paths, error) {
	baseDir := os.Getenv("SURVEY_BASE_DIR")
	if baseDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}

		// Resolve symlinks to get the actual executable location
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}

		baseDir = filepath.Dir(exe)
	}

	// Directory structure:
	// <base>/
	//   ├── config.yaml
	//   ├── codeframe.yaml
	//   ├── data/
	//   │   ├── raw/       (survey platform export workbooks)
	//   │   ├── output/    (cleaned .sav and .csv)
	//   │   └── qa/        (check workbook for manual review)
	//   └── logs/

	dataDir := filepath.Join(baseDir, "data")
	outputDir := filepath.Join(dataDir, "output")
	qaDir := filepath.Join(dataDir, "qa")

	paths := &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		RawDir:        filepath.Join(dataDir, "raw"),
		OutputDir:     outputDir,
		QADir:         qaDir,
		LogsDir:       filepath.Join(baseDir, "logs"),

		CodeframeFile: filepath.Join(baseDir, CodeframeFileName),
		ConfigFile:    filepath.Join(baseDir, ConfigFileName),

		RawWorkbook: filepath.Join(dataDir, "raw", DefaultRawWorkbook),
		SavFile:     filepath.Join(outputDir, DefaultSavFile),
		QAWorkbook:  filepath.Join(qaDir, DefaultQAWorkbook),
		CleanCSV:    filepath.Join(outputDir, DefaultCleanCSV),
		CodebookCSV: filepath.Join(qaDir, DefaultCodebookCSV),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.OutputDir,
		p.QADir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRawPath returns the path for a raw export file.
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetOutputPath returns the path for a cleaned output file.
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetQAPath returns the path for a QA artifact.
func (p *Paths) GetQAPath(filename string) string {
	return filepath.Join(p.QADir, filename)
}

// GetLogPath returns the path for a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging.
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("raw", p.RawDir),
			slog.String("output", p.OutputDir),
			slog.String("qa", p.QADir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("config_files",
			slog.String("codeframe", p.CodeframeFile),
			slog.String("config", p.ConfigFile),
		),
		slog.Group("artifacts",
			slog.String("raw_workbook", p.RawWorkbook),
			slog.String("sav", p.SavFile),
			slog.String("qa_workbook", p.QAWorkbook),
			slog.String("clean_csv", p.CleanCSV),
		))
}
