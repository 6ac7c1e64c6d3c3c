package inference

import "fmt"

// ErrModelNotLoaded indicates classification was attempted with a nil or
// partially built bundle. It signals an integration error, not bad input.
type ErrModelNotLoaded struct {
	Reason string
}

func (e *ErrModelNotLoaded) Error() string {
	return fmt.Sprintf("model not loaded: %s", e.Reason)
}

// ErrUnknownClass indicates the model predicted a class id that has no
// entry in the label map.
type ErrUnknownClass struct {
	ClassID int
}

func (e *ErrUnknownClass) Error() string {
	return fmt.Sprintf("predicted class %d has no label", e.ClassID)
}

// ErrInconsistentPrediction is returned in strict mode when the most
// probable class disagrees with the model's discrete prediction.
type ErrInconsistentPrediction struct {
	Predicted    int
	MostProbable int
}

func (e *ErrInconsistentPrediction) Error() string {
	return fmt.Sprintf("predicted class %d but class %d has the highest probability", e.Predicted, e.MostProbable)
}

// ErrBatchItem identifies the input that aborted a batch.
type ErrBatchItem struct {
	Index int
	Err   error
}

func (e *ErrBatchItem) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ErrBatchItem) Unwrap() error { return e.Err }
