package omics

// OneDataChangeDetector decides whether a single datum changed and by how much.
// Implementations hold only configuration and must be safe for concurrent use.
type OneDataChangeDetector interface {
	// ChangeSign returns -1, 0 or 1
	ChangeSign(d *ExperimentData) (int, error)
	ChangeValue(d *ExperimentData) (float64, error)
}

// TwoDataChangeDetector decides the joint change sign of a source/target pair
type TwoDataChangeDetector interface {
	ChangeSign(source, target *ExperimentData) (int, error)
}
