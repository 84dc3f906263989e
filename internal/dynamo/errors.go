package dynamo

import "errors"

// Domain errors for engine operations.
var (
	// ErrUninitializedEngine indicates an operation that needs a prior Initialize.
	ErrUninitializedEngine = errors.New("dynamo: engine not initialized")

	// ErrInvalidStepCount indicates a negative step count.
	ErrInvalidStepCount = errors.New("dynamo: step count must be non-negative")

	// ErrInvalidParameter indicates a parameter value outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter name the model does not define.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")
)
