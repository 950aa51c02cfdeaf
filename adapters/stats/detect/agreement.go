package detect

import (
	"fmt"

	"gocausal/domain/omics"
)

// AgreementDetector combines the individual change signs of two data: the
// pair changes in agreement (+1), in opposition (-1), or not at all (0).
type AgreementDetector struct{}

// NewAgreementDetector creates an agreement detector
func NewAgreementDetector() *AgreementDetector {
	return &AgreementDetector{}
}

// ChangeSign multiplies the change signs of source and target
func (AgreementDetector) ChangeSign(source, target *omics.ExperimentData) (int, error) {
	s, err := source.ChangeSign()
	if err != nil {
		return 0, fmt.Errorf("source change: %w", err)
	}
	if s == 0 {
		return 0, nil
	}
	t, err := target.ChangeSign()
	if err != nil {
		return 0, fmt.Errorf("target change: %w", err)
	}
	return s * t, nil
}
