package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors. These abort an analysis run.
	ErrConfiguration        = errors.New("configuration error")
	ErrNoDetector           = fmt.Errorf("%w: no change detector bound", ErrConfiguration)
	ErrDetectorMisuse       = fmt.Errorf("%w: change detector applied to unsupported data", ErrConfiguration)
	ErrUnknownRelationType  = fmt.Errorf("%w: unknown relation type", ErrConfiguration)
	ErrUnknownDataType      = fmt.Errorf("%w: unknown data type", ErrConfiguration)
	ErrInvalidComparison    = fmt.Errorf("%w: invalid control/test comparison", ErrConfiguration)
	ErrInvalidPermutationOp = fmt.Errorf("%w: invalid permutation setup", ErrConfiguration)

	// Input errors
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NewNoDetectorError reports a datum queried without a bound detector
func NewNoDetectorError(dataID string) error {
	return fmt.Errorf("%w (data %s)", ErrNoDetector, dataID)
}

// NewDetectorMisuseError reports a detector applied to data it cannot evaluate
func NewDetectorMisuseError(detector, dataID, reason string) error {
	return fmt.Errorf("%w: %s on data %s: %s", ErrDetectorMisuse, detector, dataID, reason)
}

// NewUnknownRelationTypeError reports an unparseable relation type name
func NewUnknownRelationTypeError(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownRelationType, name)
}

// NewUnknownDataTypeError reports an unparseable data type name
func NewUnknownDataTypeError(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownDataType, name)
}

// IsConfigurationError reports whether err is fatal for the current run
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotFoundError checks for missing resources
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
