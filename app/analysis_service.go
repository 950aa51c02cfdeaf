package app

import (
	"context"
	"strings"
	"time"

	"gocausal/adapters/bundle"
	"gocausal/adapters/stats/detect"
	"gocausal/domain/core"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/internal"
	"gocausal/internal/causality"
	"gocausal/internal/compat"
	"gocausal/internal/config"
	"gocausal/internal/errors"
	"gocausal/internal/fdr"
	"gocausal/internal/significance"
	"gocausal/ports"
)

// DefaultPValueThreshold is used when a bundle asks for significance
// detection without a threshold
const DefaultPValueThreshold = 0.05

// AnalysisService runs the causal and conflicting searches over a bundle,
// controls the FDR of the detectors and estimates network significance.
type AnalysisService struct {
	config  *config.Config
	rngPort ports.RNGPort
	logger  *internal.Logger
}

// Report is the outcome of one analysis run
type Report struct {
	RunID           core.RunID
	Name            string
	Causal          *network.ResultSet
	Conflicting     *network.ResultSet
	NeedsAnnotation []*omics.ExperimentData
	// Significance is nil when no permutation was requested
	Significance *significance.Result

	// DataThresholds are the p-value thresholds bound per data type
	DataThresholds map[omics.DataType]float64
	// CorrelationThreshold is the p-value threshold of correlation runs
	CorrelationThreshold float64
	EffectsApplied       int
	Duration             time.Duration
}

// NewAnalysisService creates an analysis service
func NewAnalysisService(cfg *config.Config, rngPort ports.RNGPort, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &AnalysisService{config: cfg, rngPort: rngPort, logger: logger}
}

// Searcher builds the configured searcher in causal mode
func (s *AnalysisService) Searcher() *causality.Searcher {
	return causality.NewSearcher(compat.NewChecker(s.config.Analysis.SiteProximity, s.config.Analysis.ForceSiteMatching))
}

// Run executes the pipeline. The bundle's data and relations are rebound to
// new detectors in place.
func (s *AnalysisService) Run(ctx context.Context, b *bundle.Bundle) (*Report, error) {
	start := time.Now()
	runID := core.NewRunID()
	logger := s.logger.With("run", runID.String())
	cfg := s.config

	mode, err := causality.ParseMode(cfg.Analysis.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "invalid search mode")
	}
	logger.Info("Analysis %q: %d data, %d relations, mode=%s correlation=%t proximity=%d",
		b.Name, len(b.Data), len(b.Relations), mode, cfg.Analysis.CorrelationBased, cfg.Analysis.SiteProximity)

	report := &Report{RunID: runID, Name: b.Name}
	report.EffectsApplied = omics.ApplyEffects(b.Data, b.Effects)
	logger.Debug("Applied %d curated effects", report.EffectsApplied)

	if err := s.bindDetectors(b); err != nil {
		return nil, errors.Wrap(err, "failed to bind detectors")
	}

	searcher := s.Searcher()
	if err := s.adjust(b, searcher, report, logger); err != nil {
		return nil, errors.Wrap(err, "FDR adjustment failed")
	}

	if report.Causal, err = searcher.Run(b.Relations); err != nil {
		return nil, errors.Wrap(err, "causal search failed")
	}
	if report.Conflicting, err = searcher.WithMode(causality.Conflicting).Run(b.Relations); err != nil {
		return nil, errors.Wrap(err, "conflicting search failed")
	}
	logger.Info("Found %d causal and %d conflicting relation triples", report.Causal.Len(), report.Conflicting.Len())

	explained := report.Causal
	if mode == causality.Conflicting {
		explained = report.Conflicting
	}
	if report.NeedsAnnotation, err = searcher.WithMode(mode).FindDataThatNeedsAnnotation(b.Relations, explained); err != nil {
		return nil, errors.Wrap(err, "annotation search failed")
	}

	if perm := cfg.Permutation; perm.Iterations > 0 {
		calc := &significance.Calculator{
			Searcher:                searcher.WithMode(mode),
			CorrelationBased:        cfg.Analysis.CorrelationBased,
			Iterations:              perm.Iterations,
			MinimumPotentialTargets: perm.MinimumPotentialTargets,
			Workers:                 perm.Workers,
			Seed:                    perm.Seed,
			// streams are keyed by bundle, not run, so a seed reproduces
			RunID:                   b.Name,
			RNG:                     s.rngPort,
			Logger:                  logger,
		}
		if report.Significance, err = calc.Run(ctx, b.Relations); err != nil {
			return nil, errors.Wrap(err, "network significance failed")
		}
		genes := report.Significance.SignificantGenes(cfg.FDR.Gene)
		logger.Info("Significant genes at FDR %.3g: %d downstream, %d activating, %d inhibiting",
			cfg.FDR.Gene, len(genes.Downstream), len(genes.Activating), len(genes.Inhibiting))
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (s *AnalysisService) bindDetectors(b *bundle.Bundle) error {
	cfg := s.config.Analysis
	det := b.Detection
	method := strings.ToLower(det.Method)
	if method == "" {
		method = "threshold"
		if b.HasComparison() {
			method = "significance"
		}
	}

	var cmp detect.Comparison
	if method != "threshold" {
		var err error
		if cmp, err = b.Comparison(); err != nil {
			return err
		}
		cmp.MinimumSampleSize = cfg.MinimumSampleSize
	}

	averaging := detect.ArithmeticMean
	if strings.EqualFold(det.Averaging, "fold-change") {
		averaging = detect.FoldChangeMean
	}
	pThreshold := det.PValueThreshold
	if pThreshold <= 0 {
		pThreshold = DefaultPValueThreshold
	}

	for _, d := range b.Data {
		switch method {
		case "threshold":
			d.Detector = detect.NewThresholdDetector(det.Threshold, averaging)
		case "difference":
			d.Detector = detect.NewDifferenceDetector(cmp, det.Threshold)
		case "fold-change":
			if d.IsNumeric() {
				d.Detector = detect.NewFoldChangeDetector(cmp, det.Threshold)
			} else {
				d.Detector = detect.NewDifferenceDetector(cmp, det.Threshold)
			}
		case "significance":
			d.Detector = detect.NewSignificanceDetector(cmp, pThreshold)
		default:
			return errors.ConfigInvalidf("unknown detection method %q", det.Method)
		}
	}

	for _, r := range b.Relations {
		if !cfg.CorrelationBased {
			r.Detector = detect.NewAgreementDetector()
			continue
		}
		cd := detect.NewCorrelationDetector(pThreshold, cfg.CorrelationThreshold)
		cd.MinimumSampleSize = cfg.MinimumSampleSize
		if cfg.CorrelationUpperThreshold != nil {
			cd = cd.WithUpperThreshold(*cfg.CorrelationUpperThreshold)
		}
		r.Detector = cd
	}
	return nil
}

// adjust binds FDR controlled thresholds. Data types without a configured
// FDR, or without any datum used for inference, get the bundle's p-value
// threshold.
func (s *AnalysisService) adjust(b *bundle.Bundle, searcher *causality.Searcher, report *Report, logger *internal.Logger) error {
	cfg := s.config
	if cfg.Analysis.CorrelationBased {
		adj := &fdr.CorrelationAdjuster{FDR: cfg.FDR.Correlation, MinimumSampleSize: cfg.Analysis.MinimumSampleSize}
		threshold, err := adj.Threshold(b.Relations, searcher)
		if err != nil {
			return err
		}
		report.CorrelationThreshold = threshold
		n := adj.Apply(b.Relations, report.CorrelationThreshold)
		logger.Info("Correlation p-value threshold %.4g bound to %d relations", report.CorrelationThreshold, n)
		return nil
	}

	if fdr.BindAll(b.Data, 1) == 0 {
		return nil
	}
	used, err := searcher.DataUsedForInference(b.Relations)
	if err != nil {
		return err
	}
	rates, err := cfg.DataTypeFDR()
	if err != nil {
		return err
	}
	adj := &fdr.DatumAdjuster{FDR: rates, PoolProteomics: cfg.Analysis.PoolProteomics}
	thresholds, err := adj.Thresholds(used)
	if err != nil {
		return err
	}

	fallback := b.Detection.PValueThreshold
	if fallback <= 0 {
		fallback = DefaultPValueThreshold
	}
	for _, d := range b.Data {
		if _, ok := thresholds[d.Type]; !ok {
			thresholds[d.Type] = fallback
		}
	}
	n := adj.Apply(b.Data, thresholds)
	for t, th := range thresholds {
		logger.Debug("FDR threshold for %s: %.4g", t, th)
	}
	logger.Info("Bound FDR thresholds to %d data (%d used for inference)", n, len(used))
	report.DataThresholds = thresholds
	return nil
}
