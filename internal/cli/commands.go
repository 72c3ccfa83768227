package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

func newPredictCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "predict FILE",
		Short: "Print a prediction for every application in FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := summarize(opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, sum.Predictions)
			}
			return printPredictions(out, sum.Predictions)
		},
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Print the average probability and mean factor impacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := summarize(opts, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, struct {
					AverageProbability int                    `json:"averageProbability"`
					FactorImpacts      []scoring.FactorImpact `json:"factorImpacts"`
				}{sum.AverageProbability, sum.FactorImpacts})
			}
			return printSummary(out, sum)
		},
	}
}

func summarize(opts *options, path string) (scoring.Summary, error) {
	engine, err := opts.engine()
	if err != nil {
		return scoring.Summary{}, err
	}
	records, err := readRecords(path, time.Now())
	if err != nil {
		return scoring.Summary{}, err
	}
	return engine.Summarize(records)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPredictions(w io.Writer, preds []scoring.Scored) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tPOSITION\tSUCCESS\tTOP FACTOR\tACTIONS")
	for _, p := range preds {
		top := ""
		if kf := p.Prediction.KeyFactors; len(kf) > 0 {
			top = fmt.Sprintf("%s (%d)", kf[0].Factor, kf[0].Impact)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n", p.Company, p.Position,
			p.Prediction.SuccessProbability, top, strings.Join(p.Prediction.RecommendedActions, "; "))
	}
	return tw.Flush()
}

func printSummary(w io.Writer, sum scoring.Summary) error {
	fmt.Fprintf(w, "Applications: %d\nAverage success probability: %d%%\n\n", len(sum.Predictions), sum.AverageProbability)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTOR\tMEAN IMPACT")
	for _, fi := range sum.FactorImpacts {
		fmt.Fprintf(tw, "%s\t%.1f\n", fi.Factor, fi.Impact)
	}
	return tw.Flush()
}
