package main

import (
	"fmt"
	"strings"

	"github.com/ledgermap/ledgermap/internal/cli"
	"github.com/ledgermap/ledgermap/internal/config"
	"github.com/ledgermap/ledgermap/internal/model"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <line item>",
		Short: "Classify a single accounting line item",
		Long: `Run the full matching cascade for one line item and print the result
together with the decision trail of every strategy attempted.`,
		Example: `  # Classify with the default training data
  ledgermap classify "Salaries and Wages" --training data/training.csv

  # Classify with a domain preset
  ledgermap classify "AWS Hosting" --training data/training.csv --domain "SaaS / IT Services"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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

			text := strings.Join(args, " ")
			result := eng.Classify(ctx, model.ClassificationRequest{
				Text:   text,
				Domain: cfg.Domain,
			})

			printResult(text, result)
			return nil
		},
	}

	return cmd
}

func printResult(text string, result model.ClassificationResult) {
	fmt.Println(cli.TitleStyle.Render("Classification"))
	fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("item:"), text)
	fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("label:"), cli.BoldStyle.Render(string(result.Label)))
	fmt.Printf("  %s %.4f\n", cli.SubtleStyle.Render("confidence:"), result.Confidence)
	fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("method:"), result.Method)
	if result.MatchedRow != nil {
		fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("matched:"), result.MatchedRow.Text)
	}
	if result.NeedsReview {
		fmt.Println(cli.WarningStyle.Render("  needs review"))
	}
	if result.Alternative != nil {
		fmt.Printf("  %s %s (%s %.2f)\n",
			cli.SubtleStyle.Render("alternative:"),
			result.Alternative.Label, result.Alternative.Method, result.Alternative.Score)
	}

	fmt.Println()
	fmt.Println(cli.TitleStyle.Render("Decision trail"))
	for _, outcome := range result.Trail {
		status := cli.SubtleStyle.Render("no match")
		if outcome.Passed {
			status = cli.SuccessStyle.Render("passed")
		} else if !outcome.HasScore && outcome.Detail != "" {
			status = cli.WarningStyle.Render("could not run")
		}

		score := "-"
		if outcome.HasScore {
			score = fmt.Sprintf("%.4f", outcome.Score)
		}

		line := fmt.Sprintf("  %-10s %-8s %s", outcome.Method, score, status)
		if outcome.Detail != "" && !outcome.Passed {
			line += cli.SubtleStyle.Render("  " + outcome.Detail)
		}
		fmt.Println(line)
	}
}
