package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gocausal/adapters/bundle"
	"gocausal/adapters/report"
	"gocausal/app"
	"gocausal/domain/omics"
	"gocausal/internal/config"
	"gocausal/internal/container"
	"gocausal/internal/errors"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the flags shared by every command. Flags override the config
// file and environment only when set.
type options struct {
	configPath string
	logLevel   string
	outDir     string

	mode          string
	proximity     int
	forceSites    bool
	correlation   bool
	iterations    int
	seed          int64
	workers       int
	minimumTarget int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "gocausal",
		Short:         "Causal and conflicting explanations of omics changes over a prior network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: ERROR|WARN|INFO|DEBUG|TRACE")
	rootCmd.PersistentFlags().StringVar(&opts.mode, "mode", "", "Search mode: causal|conflicting")
	rootCmd.PersistentFlags().IntVar(&opts.proximity, "site-proximity", 0, "Site matching tolerance in residues")
	rootCmd.PersistentFlags().BoolVar(&opts.forceSites, "force-site-matching", false, "Require phosphosite matches for site specific relations")
	rootCmd.PersistentFlags().BoolVar(&opts.correlation, "correlation", false, "Use correlation between source and target instead of change agreement")

	rootCmd.AddCommand(
		newSearchCmd(opts),
		newAnnotateCmd(opts),
		newSignificanceCmd(opts),
	)
	return rootCmd
}

func newSearchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [bundle]",
		Short: "Find causal and conflicting relations explaining the bundle's changes",
		Long: `Run the causal and conflicting searches over an analysis bundle.

Detectors are bound per the bundle's detection section, their p-value
thresholds are FDR controlled and the results are written as TSV files
when --out is given.

Example: gocausal search bundle.yaml --out results --site-proximity 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, cfg, err := run(cmd, opts, args[0], func(c *config.Config) { c.Permutation.Iterations = 0 })
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), rep)
			return writeOut(cmd.OutOrStdout(), opts.outDir, rep, cfg.FDR.Gene)
		},
	}
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Directory for result files")
	return cmd
}

func newAnnotateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [bundle]",
		Short: "List changed data that no relation explains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, _, err := run(cmd, opts, args[0], func(c *config.Config) { c.Permutation.Iterations = 0 })
			if err != nil {
				return err
			}
			return report.WriteAnnotation(cmd.OutOrStdout(), rep.RunID.String(), rep.NeedsAnnotation)
		},
	}
}

func newSignificanceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "significance [bundle]",
		Short: "Estimate network and per-gene significance by label permutation",
		Long: `Run the searches and a permutation test of the result graph.

Each iteration shuffles data labels within the numeric and categorical pools
and counts the downstream, activating and inhibiting targets per gene.

Example: gocausal significance bundle.yaml --iterations 10000 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, cfg, err := run(cmd, opts, args[0], func(c *config.Config) {
				if c.Permutation.Iterations == 0 {
					c.Permutation.Iterations = 1000
				}
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, rep)
			printSignificance(out, rep, cfg.FDR.Gene)
			return writeOut(out, opts.outDir, rep, cfg.FDR.Gene)
		},
	}
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "Number of permutations (default from config, else 1000)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed for deterministic permutations")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent permutation workers (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.minimumTarget, "min-potential-targets", 0, "Skip genes with fewer potential targets")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Directory for result files")
	return cmd
}

// loadConfig reads the config and applies the flags that were set
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = strings.ToUpper(opts.logLevel)
	}
	if flags.Changed("mode") {
		cfg.Analysis.Mode = strings.ToLower(opts.mode)
	}
	if flags.Changed("site-proximity") {
		cfg.Analysis.SiteProximity = opts.proximity
	}
	if flags.Changed("force-site-matching") {
		cfg.Analysis.ForceSiteMatching = opts.forceSites
	}
	if flags.Changed("correlation") {
		cfg.Analysis.CorrelationBased = opts.correlation
	}
	if flags.Changed("iterations") {
		cfg.Permutation.Iterations = opts.iterations
	}
	if flags.Changed("seed") {
		cfg.Permutation.Seed = opts.seed
	}
	if flags.Changed("workers") {
		cfg.Permutation.Workers = opts.workers
	}
	if flags.Changed("min-potential-targets") {
		cfg.Permutation.MinimumPotentialTargets = opts.minimumTarget
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *options, bundlePath string, adjust func(*config.Config)) (*app.Report, *config.Config, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	adjust(cfg)

	c, err := container.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer c.Shutdown()

	b, err := bundle.Load(bundlePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load bundle")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rep, err := c.Analysis.Run(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return rep, cfg, nil
}

func printSummary(w io.Writer, rep *app.Report) {
	fmt.Fprintf(w, "Run %s (%s) finished in %v\n", rep.RunID, rep.Name, rep.Duration)
	fmt.Fprintf(w, "Causal triples: %d (%d relations)\n", rep.Causal.Len(), len(rep.Causal.Relations()))
	fmt.Fprintf(w, "Conflicting triples: %d (%d relations)\n", rep.Conflicting.Len(), len(rep.Conflicting.Relations()))
	fmt.Fprintf(w, "Unexplained changed data: %d\n", len(rep.NeedsAnnotation))
	if rep.CorrelationThreshold > 0 {
		fmt.Fprintf(w, "Correlation p-value threshold: %.4g\n", rep.CorrelationThreshold)
	}
	types := make([]omics.DataType, 0, len(rep.DataThresholds))
	for t := range rep.DataThresholds {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	for _, t := range types {
		fmt.Fprintf(w, "  %s p-value threshold: %.4g\n", t, rep.DataThresholds[t])
	}
}

func printSignificance(w io.Writer, rep *app.Report, geneFDR float64) {
	sig := rep.Significance
	if sig == nil {
		return
	}
	fmt.Fprintf(w, "\nNetwork size %d, permutation p = %.4g (%d iterations)\n", sig.GraphSize, sig.GraphSizePValue, sig.Iterations)
	genes := sig.SignificantGenes(geneFDR)
	fmt.Fprintf(w, "Significant at FDR %.3g:\n", geneFDR)
	fmt.Fprintf(w, "  downstream: %s\n", joinOrNone(genes.Downstream))
	fmt.Fprintf(w, "  activating: %s\n", joinOrNone(genes.Activating))
	fmt.Fprintf(w, "  inhibiting: %s\n", joinOrNone(genes.Inhibiting))
}

func joinOrNone(genes []string) string {
	if len(genes) == 0 {
		return "none"
	}
	return strings.Join(genes, ", ")
}

func writeOut(w io.Writer, dir string, rep *app.Report, geneFDR float64) error {
	if dir == "" {
		return nil
	}
	written, err := report.WriteDir(dir, rep, geneFDR)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
	return nil
}
