package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ledgermap/ledgermap/internal/cli"
	"github.com/ledgermap/ledgermap/internal/config"
	"github.com/ledgermap/ledgermap/internal/engine"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/service"
	"github.com/ledgermap/ledgermap/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func batchCmd() *cobra.Command {
	var (
		outputPath     string
		checkpointPath string
	)

	cmd := &cobra.Command{
		Use:   "batch <input.csv>",
		Short: "Classify every line item in a CSV file",
		Long: `Run the matching cascade over every row of the input file and write the
predictions to an output CSV. Progress is checkpointed periodically, so an
interrupted run resumes from where it stopped instead of starting over.`,
		Example: `  # Classify a file of line items
  ledgermap batch items.csv --training data/training.csv -o predictions.csv

  # Resume after an interruption (same input and checkpoint)
  ledgermap batch items.csv --training data/training.csv -o predictions.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inputPath := args[0]

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := loadStore(ctx)
			if err != nil {
				return err
			}

			eng, llmMatcher, err := buildEngine(cfg, store)
			if err != nil {
				return err
			}
			defer func() { _ = llmMatcher.Close() }()

			items, err := readBatchInput(inputPath)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no line items found in %s", inputPath)
			}

			if checkpointPath == "" {
				checkpointPath = outputPath + ".checkpoint"
			}

			job := newBatchJob(inputPath, items, cfg.Domain)
			runner := engine.NewBatchRunner(eng, checkpointPath, cfg.CheckpointInterval)

			bar := progressbar.NewOptions(len(job.Requests),
				progressbar.OptionSetDescription("Classifying"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)
			runner.OnResult = func(index int, _ model.ClassificationResult) {
				_ = bar.Set(index + 1)
			}

			rows, stats, runErr := runner.Run(ctx, job)
			_ = bar.Finish()

			// Partial output is still written on cancellation so the rows
			// classified so far are not lost.
			if len(rows) > 0 {
				if writeErr := writeBatchOutput(outputPath, rows); writeErr != nil {
					return writeErr
				}
			}

			if runErr != nil {
				if errors.Is(runErr, context.Canceled) {
					fmt.Fprintln(os.Stderr, cli.WarningStyle.Render(
						fmt.Sprintf("Interrupted after %d/%d items; rerun to resume from the checkpoint", len(rows), len(job.Requests))))
				}
				return runErr
			}

			if err := os.Remove(checkpointPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove checkpoint: %w", err)
			}

			printBatchStats(outputPath, stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "predictions.csv", "output CSV file")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file (default: <output>.checkpoint)")
	cmd.Flags().Int("checkpoint-interval", 10, "items between checkpoint writes")
	_ = viper.BindPFlag("batch.checkpoint_interval", cmd.Flags().Lookup("checkpoint-interval"))

	return cmd
}

// readBatchInput reads the line items from the input CSV. The primary_group
// column is required; a headerless single-column file is accepted as a plain
// list of items.
func readBatchInput(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	textIdx := -1
	for i, col := range records[0] {
		if col == storage.ColumnText {
			textIdx = i
			break
		}
	}

	start := 1
	if textIdx < 0 {
		if len(records[0]) != 1 {
			return nil, fmt.Errorf("required column %q not found in %s", storage.ColumnText, path)
		}
		textIdx = 0
		start = 0
	}

	var items []string
	for _, record := range records[start:] {
		if textIdx >= len(record) {
			continue
		}
		items = append(items, record[textIdx])
	}
	return items, nil
}

// newBatchJob builds the job for an input file. The job identity is the
// input path, so a checkpoint written for one file never resumes another.
func newBatchJob(inputPath string, items []string, domain model.DomainContext) *model.BatchJob {
	requests := make([]model.ClassificationRequest, len(items))
	for i, item := range items {
		requests[i] = model.ClassificationRequest{Text: item, Domain: domain}
	}
	return &model.BatchJob{ID: inputPath, Requests: requests}
}

func writeBatchOutput(path string, rows []engine.OutputRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(engine.CSVHeader()); err != nil {
		_ = f.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row.CSVRecord()); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printBatchStats(outputPath string, stats service.BatchStats) {
	fmt.Println(cli.TitleStyle.Render("Batch summary"))
	fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("processed:"), stats.Processed)
	fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("needs review:"), stats.NeedsReview)
	fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("duration:"), stats.Duration.Round(time.Millisecond))

	methods := make([]string, 0, len(stats.ByMethod))
	for method := range stats.ByMethod {
		methods = append(methods, string(method))
	}
	sort.Strings(methods)
	for _, method := range methods {
		fmt.Printf("  %s %d\n", cli.SubtleStyle.Render(method+":"), stats.ByMethod[model.Method(method)])
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Predictions written to %s", outputPath)))
}
