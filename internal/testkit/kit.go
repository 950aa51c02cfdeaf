// Package testkit provides fixtures and test doubles for building small prior
// networks with bound change detectors.
package testkit

import (
	"context"
	"fmt"
	"math/rand"

	"gocausal/adapters/stats/detect"
	"gocausal/domain/network"
	"gocausal/domain/omics"
	"gocausal/ports"

	"github.com/stretchr/testify/mock"
)

// DefaultThreshold is the change threshold bound to single value fixtures
const DefaultThreshold = 0.5

// Protein creates a total protein datum whose single value is its change
func Protein(gene string, change float64) *omics.ExperimentData {
	return numeric(gene+"_total", omics.TypeProtein, gene, change)
}

// Expression creates an RNA datum
func Expression(gene string, change float64) *omics.ExperimentData {
	return numeric(gene+"_rna", omics.TypeExpression, gene, change)
}

// Activity creates a GTPase activity datum
func Activity(gene string, change float64) *omics.ExperimentData {
	d := &omics.ExperimentData{
		ID:    gene + "_act",
		Genes: []string{gene},
		Type:  omics.TypeActivity,
		Calls: []omics.Call{{Code: sign(change)}},
	}
	d.Detector = detect.NewThresholdDetector(DefaultThreshold, detect.ArithmeticMean)
	return d
}

// Phospho creates a phosphosite datum at position with the given site effect
func Phospho(gene string, position, effect int, change float64) *omics.ExperimentData {
	site := omics.Site{Gene: gene, Residue: "S", Position: position, Effect: effect}
	d := omics.NewPhospho(fmt.Sprintf("%s_pS%d", gene, position), []string{gene}, []omics.Site{site}, []float64{change})
	d.Detector = detect.NewThresholdDetector(DefaultThreshold, detect.ArithmeticMean)
	return d
}

// Mutation creates a mutation datum that is mutated in its only sample when
// mutated is set.
func Mutation(gene string, effect int, mutated bool) *omics.ExperimentData {
	code := 0
	if mutated {
		code = 1
	}
	d := &omics.ExperimentData{
		ID:             gene + "_mut",
		Genes:          []string{gene},
		Type:           omics.TypeMutation,
		Calls:          []omics.Call{{Code: code}},
		MutationEffect: effect,
	}
	d.Detector = detect.NewThresholdDetector(DefaultThreshold, detect.ArithmeticMean)
	return d
}

func numeric(id string, t omics.DataType, gene string, change float64) *omics.ExperimentData {
	d, err := omics.NewNumeric(id, t, []string{gene}, []float64{change})
	if err != nil {
		panic(err)
	}
	d.Detector = detect.NewThresholdDetector(DefaultThreshold, detect.ArithmeticMean)
	return d
}

// Link attaches data to the relation ends and binds an agreement detector
func Link(r *network.Relation, sources []*omics.ExperimentData, targets ...*omics.ExperimentData) *network.Relation {
	for _, d := range sources {
		r.SourceData.Add(d)
	}
	for _, d := range targets {
		r.TargetData.Add(d)
	}
	r.Detector = detect.NewAgreementDetector()
	return r
}

// Sources is a readability helper for Link
func Sources(data ...*omics.ExperimentData) []*omics.ExperimentData {
	return data
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// RNGAdapter implements the RNGPort interface for testing
type RNGAdapter struct{}

var _ ports.RNGPort = (*RNGAdapter)(nil)

// SeededStream creates a deterministic random number generator for a named operation
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// Stream ignores the names and seeds from baseSeed alone
func (r *RNGAdapter) Stream(ctx context.Context, runID, stageName, unitKey string, baseSeed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(baseSeed)), nil
}

// MockRNG is a testify mock of RNGPort
type MockRNG struct {
	mock.Mock
}

var _ ports.RNGPort = (*MockRNG)(nil)

func (m *MockRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	args := m.Called(ctx, name, seed)
	r, _ := args.Get(0).(*rand.Rand)
	return r, args.Error(1)
}

func (m *MockRNG) Stream(ctx context.Context, runID, stageName, unitKey string, baseSeed int64) (*rand.Rand, error) {
	args := m.Called(ctx, runID, stageName, unitKey, baseSeed)
	r, _ := args.Get(0).(*rand.Rand)
	return r, args.Error(1)
}
