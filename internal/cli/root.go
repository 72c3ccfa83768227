// Package cli implements jobscore, an offline scorer for a file of job
// applications.
package cli

import (
	"math/rand/v2"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/justsurfingit/job-success-tracker/internal/scoring"
)

type options struct {
	mode      string
	seed      uint64
	reference string
	asJSON    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "jobscore",
		Short: "Score job applications for likelihood of success",
		Long: `jobscore reads applications from a YAML or JSON file and prints the
success probability, key factors and recommended actions for each.

Company fit and application timing are placeholder heuristics. Use
--mode midpoint for repeatable output or --seed to fix the random draw.`,
		SilenceUsage: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&opts.mode, "mode", scoring.FactorModeRandom, "factor mode: random or midpoint")
	f.Uint64Var(&opts.seed, "seed", 0, "seed for random mode (0 draws a fresh seed)")
	f.StringVar(&opts.reference, "reference-skills", "", "comma separated skills to match against")
	f.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(newPredictCmd(opts), newSummaryCmd(opts))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *options) engine() (*scoring.Engine, error) {
	var src scoring.FactorSource
	switch {
	case o.mode == scoring.FactorModeRandom && o.seed != 0:
		src = scoring.NewRandomFactors(rand.New(rand.NewPCG(o.seed, o.seed)))
	default:
		var err error
		if src, err = scoring.NewFactorSource(o.mode); err != nil {
			return nil, errors.Wrap(err, "--mode")
		}
	}

	opts := []scoring.Option{scoring.WithFactorSource(src)}
	if o.reference != "" {
		var skills []string
		for _, s := range strings.Split(o.reference, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
		opts = append(opts, scoring.WithReferenceSkills(skills))
	}
	return scoring.NewEngine(opts...), nil
}
