package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"surveycli/internal/clean"
	"surveycli/internal/codeframe"
	"surveycli/internal/config"
	"surveycli/internal/dataset"
	"surveycli/internal/errors"
	"surveycli/internal/exporter"
	"surveycli/internal/infrastructure"
	"surveycli/internal/validation"
)

func main() {
	inFile := flag.String("in", "", "raw survey workbook (defaults to data/raw/"+config.DefaultRawWorkbook+" relative to executable)")
	frameFile := flag.String("codeframe", "", "codeframe YAML (defaults to "+config.CodeframeFileName+" next to the executable)")
	outFile := flag.String("out", "", "cleaned .sav path (defaults to data/output/"+config.DefaultSavFile+")")
	qaFile := flag.String("qa", "", "QA workbook path (defaults to data/qa/"+config.DefaultQAWorkbook+")")
	flag.Parse()

	// Initialize paths first to get default locations
	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("cleaner.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	// One run ID identifies this invocation in every log line and the QA
	// workbook.
	ctx := infrastructure.EnsureRunID(context.Background())
	logger = infrastructure.LoggerWithContext(ctx)

	paths.LogPathResolution()

	if *inFile == "" {
		*inFile = paths.RawWorkbook
	}
	if *frameFile == "" {
		*frameFile = paths.CodeframeFile
	}
	if *outFile == "" {
		*outFile = paths.SavFile
	}
	if *qaFile == "" {
		*qaFile = paths.QAWorkbook
	}

	start, err := cfg.Fieldwork.Start()
	if err != nil {
		fail(logger, "Invalid survey start date", err)
	}

	inputs := validation.NewInputValidator(logger)
	if err := inputs.ValidateCodeframe(*frameFile); err != nil {
		fail(logger, "Codeframe path check failed", err)
	}
	if err := inputs.ValidateWorkbook(*inFile); err != nil {
		fail(logger, "Workbook path check failed", err)
	}
	for _, dir := range []string{paths.OutputDir, paths.QADir} {
		if err := inputs.ValidateOutputDirectory(dir); err != nil {
			fail(logger, "Output location check failed", err)
		}
	}

	logger.Info("Starting survey cleaning run",
		slog.String("workbook", *inFile),
		slog.String("codeframe", *frameFile),
		slog.String("survey_start", cfg.Fieldwork.StartDate),
		slog.String("on_empty_case", cfg.Pipeline.OnEmptyCase),
		slog.String("on_unmapped_label", cfg.Pipeline.OnUnmappedLabel),
		slog.String("executable_dir", paths.ExecutableDir))

	frame, err := codeframe.Load(*frameFile)
	if err != nil {
		fail(logger, "Failed to load codeframe", err)
	}
	logger.Info("Codeframe loaded",
		slog.String("survey", frame.Survey),
		slog.Int("questions", len(frame.Questions)),
		slog.Int("rules", len(frame.Rules)))

	table, err := dataset.ReadWorkbook(*inFile, dataset.LoadOptions{
		Sheet:           cfg.Fieldwork.Sheet,
		RequiredColumns: frame.RequiredColumns(),
	})
	if err != nil {
		fail(logger, "Failed to load workbook", err)
	}
	fmt.Printf("Loaded %d responses\n", table.NumRows())

	state := clean.NewState(frame, clean.Policy{
		OnEmptyCase:     cfg.Pipeline.OnEmptyCase,
		OnUnmappedLabel: cfg.Pipeline.OnUnmappedLabel,
	}, start, table)

	if err := clean.NewRunner(clean.Stages()...).Run(ctx, state); err != nil {
		fail(logger, "Cleaning pipeline failed", err)
	}

	savExporter := exporter.NewSavExporter(paths)
	if err := savExporter.Export(*outFile, state.Table, frame, start, exporter.SavOptions{
		FileLabel: cfg.Fieldwork.FileLabel,
	}); err != nil {
		fail(logger, "Failed to write statistical file", err)
	}

	qaExporter := exporter.NewQAExporter(paths)
	qaExporter.PreviewRows = cfg.Pipeline.QAPreviewRows
	if err := qaExporter.Export(ctx, *qaFile, state); err != nil {
		fail(logger, "Failed to write QA workbook", err)
	}

	csvWriter := exporter.NewCSVWriter(paths)
	if err := csvWriter.WriteTable(config.DefaultCleanCSV, state.Table); err != nil {
		fail(logger, "Failed to write cleaned CSV", err)
	}

	logger.Info("Cleaning run complete",
		slog.Int("rows_loaded", state.Stats.RowsLoaded),
		slog.Int("rows_rejected", state.Stats.RowsRejected),
		slog.Int("rows_clean", state.Stats.RowsClean),
		slog.Int("unmapped_nulled", state.Stats.UnmappedNulls),
		slog.String("sav_file", *outFile),
		slog.String("qa_workbook", *qaFile))

	fmt.Printf("Cleaned %d of %d responses (%d rejected)\n",
		state.Stats.RowsClean, state.Stats.RowsLoaded, state.Stats.RowsRejected)
	fmt.Printf("Wrote %s\n", *outFile)
	fmt.Printf("Wrote %s\n", *qaFile)
}

// fail logs the failure to the structured log and to stderr, then exits.
// Runs never partially succeed: any error before this point leaves no
// finalized output file behind.
func fail(logger *slog.Logger, msg string, err error) {
	logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("error_type", string(errors.TypeOf(err))))
	slog.Error(msg, "error", err)
	os.Exit(1)
}
