package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"surveycli/internal/codeframe"
	"surveycli/internal/config"
	"surveycli/internal/exporter"
	"surveycli/internal/infrastructure"
	"surveycli/internal/validation"
)

func main() {
	frameFile := flag.String("codeframe", "", "codeframe YAML (defaults to "+config.CodeframeFileName+" next to the executable)")
	out := flag.String("out", "", "output csv file path (defaults to data/qa/"+config.DefaultCodebookCSV+")")
	flag.Parse()

	// Initialize paths first to get default locations
	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if *frameFile == "" {
		*frameFile = paths.CodeframeFile
	}
	if *out == "" {
		*out = paths.CodebookCSV
	}

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("codebook.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	logger.Info("Starting codebook export",
		slog.String("codeframe", *frameFile),
		slog.String("output_file", *out),
		slog.String("executable_dir", paths.ExecutableDir))

	if err := validation.NewInputValidator(logger).ValidateCodeframe(*frameFile); err != nil {
		logger.Error("Codeframe path check failed", slog.String("error", err.Error()))
		slog.Error("Codeframe path check failed", "error", err)
		os.Exit(1)
	}

	frame, err := codeframe.Load(*frameFile)
	if err != nil {
		logger.Error("Failed to load codeframe", slog.String("error", err.Error()))
		slog.Error("Failed to load codeframe", "error", err)
		os.Exit(1)
	}

	if err := exporter.NewCodebookExporter(paths).Export(*out, frame); err != nil {
		logger.Error("Failed to write codebook", slog.String("error", err.Error()))
		slog.Error("Failed to write codebook", "error", err)
		os.Exit(1)
	}

	logger.Info("Codebook written",
		slog.String("survey", frame.Survey),
		slog.Int("questions", len(frame.Questions)),
		slog.String("output_file", *out))
	fmt.Printf("Wrote %s\n", *out)
}
