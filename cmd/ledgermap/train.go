package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ledgermap/ledgermap/internal/cli"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/ledgermap/ledgermap/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Inspect and maintain the training data",
	}

	cmd.AddCommand(trainCheckCmd())
	cmd.AddCommand(trainStatsCmd())
	cmd.AddCommand(trainSearchCmd())
	cmd.AddCommand(trainAddCmd())

	return cmd
}

func trainCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the training data and report malformed rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadStore(cmd.Context())
			if err != nil {
				return err
			}

			warnings := store.Warnings()
			fmt.Printf("%s %d examples loaded, %d rows skipped\n",
				cli.TitleStyle.Render("Training data:"), store.Len(), len(warnings))

			for _, w := range warnings {
				line := fmt.Sprintf("  row %d: %s", w.Row, w.Reason)
				if w.Text != "" {
					line += fmt.Sprintf(" (%q)", w.Text)
				}
				fmt.Println(cli.WarningStyle.Render(line))
			}

			if len(warnings) > 0 {
				return fmt.Errorf("%d malformed training rows", len(warnings))
			}
			return nil
		},
	}
}

func trainStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show training data statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadStore(cmd.Context())
			if err != nil {
				return err
			}

			byLabel := make(map[model.Label]int)
			for _, example := range store.Examples() {
				byLabel[example.Label]++
			}

			fmt.Println(cli.TitleStyle.Render("Training data"))
			fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("examples:"), store.Len())
			fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("balance sheet:"), byLabel[model.LabelBalanceSheet])
			fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("profit & loss:"), byLabel[model.LabelProfitAndLoss])
			fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("skipped rows:"), len(store.Warnings()))
			return nil
		},
	}
}

func trainSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <substring>",
		Short: "Search training examples by substring",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore(cmd.Context())
			if err != nil {
				return err
			}

			needle := strings.Join(args, " ")
			matches := store.Search(needle)
			if len(matches) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no matches"))
				return nil
			}

			for _, example := range matches {
				fmt.Printf("  %-40s %s\n", example.Text, cli.SubtleStyle.Render(string(example.Label)))
			}
			fmt.Printf("%d matches\n", len(matches))
			return nil
		},
	}
}

func trainAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <line item> <label>",
		Short: "Append a labeled example to the training CSV",
		Long: `Append one labeled example to the configured training CSV file. The label
must be "Balance Sheet" or "Profit & Loss" (BS and PL are accepted as
shorthand).`,
		Example: `  ledgermap train add "Director Remuneration" PL --training data/training.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			text := strings.TrimSpace(args[0])
			if text == "" {
				return fmt.Errorf("example text must not be empty")
			}

			label, err := model.ParseLabel(args[1])
			if err != nil {
				return err
			}

			path := viper.GetString("training.file")
			if path == "" {
				return fmt.Errorf("train add requires a CSV training source (use --training)")
			}

			if err := appendTrainingRow(path, text, label); err != nil {
				return err
			}

			fmt.Println(cli.SuccessStyle.Render(
				fmt.Sprintf("Added %q as %s to %s", text, label, path)))
			return nil
		},
	}
}

// appendTrainingRow appends one example to the training CSV, creating the
// file with a header when it does not exist yet. The row is written in the
// file's own column order so extra columns stay aligned.
func appendTrainingRow(path, text string, label model.Label) error {
	header, err := readCSVHeader(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	if header == nil {
		header = []string{storage.ColumnText, storage.ColumnLabel}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	record := make([]string, len(header))
	found := false
	for i, col := range header {
		switch col {
		case storage.ColumnText:
			record[i] = text
			found = true
		case storage.ColumnLabel:
			record[i] = string(label)
		}
	}
	if !found {
		return fmt.Errorf("required column %q not found in %s", storage.ColumnText, path)
	}

	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// readCSVHeader returns the header row of an existing CSV file, or nil when
// the file does not exist or is empty.
func readCSVHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, nil
	}
	return header, nil
}
