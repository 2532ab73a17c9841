package domain

import (
	"fmt"
	"strings"
)

// ViolationCode classifies a business-rule failure.
type ViolationCode string

const (
	ViolationUnknownModel     ViolationCode = "unknown_model"
	ViolationUnknownAccessory ViolationCode = "unknown_accessory"
	ViolationNoModel          ViolationCode = "no_model"
	ViolationMaxAccessories   ViolationCode = "max_accessories"
	ViolationMandatory        ViolationCode = "mandatory"
	ViolationIncompatible     ViolationCode = "incompatible"
	ViolationAvailability     ViolationCode = "availability"
	ViolationDependents       ViolationCode = "dependents"
)

// Violation is one reason a candidate configuration or edit is illegal.
// An empty violation list means the candidate is legal.
type Violation struct {
	Code   ViolationCode `json:"code"`
	Reason string        `json:"reason"`
}

// ValidationError carries every violation found for a candidate, so callers
// can show all reasons at once instead of fixing them one by one.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		reasons[i] = v.Reason
	}
	return fmt.Sprintf("configuration invalid: %s", strings.Join(reasons, "; "))
}
