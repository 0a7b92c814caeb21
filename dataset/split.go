package dataset

import "fmt"

// Split labels a dataset partition.
type Split string

const (
	SplitTrain      Split = "train"
	SplitValidation Split = "validation"
)

// splitBuckets is the resolution of the deterministic assignment.
const splitBuckets = 1000

// AssignSplit deterministically assigns a record to a partition from a hash
// of its identifier, so membership is stable across runs and machines.
func AssignSplit(recordID string, validationFraction float64) (Split, error) {
	if validationFraction < 0 || validationFraction >= 1 {
		return "", fmt.Errorf("validation fraction must be in [0,1), got %v", validationFraction)
	}
	if validationFraction == 0 {
		return SplitTrain, nil
	}
	sum, err := Digest([]byte(recordID))
	if err != nil {
		return "", err
	}
	if int(sum%splitBuckets) < int(validationFraction*splitBuckets) {
		return SplitValidation, nil
	}
	return SplitTrain, nil
}
