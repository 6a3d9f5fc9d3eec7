package shipping

import "strings"

// Eligibility problems.
const (
	ProblemNotDone     = "order is not done"
	ProblemHasGuide    = "order already has a guide assigned"
	ProblemNoRecipient = "recipient address could not be resolved"
	ProblemNoLineItems = "order has no product lines"
)

// ValidationError lists every rule an order violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, " | ")
}

// Eligibility decides whether an order may be shipped.
type Eligibility struct {
	// AllowExistingGuide skips the existing-guide rule so the same record can
	// be resubmitted against a test carrier.
	AllowExistingGuide bool
}

// Validate returns a *ValidationError collecting all violated rules, or nil.
func (e Eligibility) Validate(o Order, recipientID int64) error {
	var problems []string

	if o.State != StateDone {
		problems = append(problems, ProblemNotDone)
	}
	if o.TrackingRef != "" && !e.AllowExistingGuide {
		problems = append(problems, ProblemHasGuide)
	}
	if recipientID <= 0 {
		problems = append(problems, ProblemNoRecipient)
	}
	if len(o.MoveLineIDs) == 0 {
		problems = append(problems, ProblemNoLineItems)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// CarrierMatcher decides whether an order is assigned to the integrated carrier.
type CarrierMatcher struct {
	Carrier string
	// HonorFlag also accepts orders with the non-production carrier checkbox set.
	HonorFlag bool
}

// Match reports whether the carrier display name contains the carrier name,
// case-insensitively, or the flag is honoured and set.
func (m CarrierMatcher) Match(o Order) bool {
	if o.CarrierName != "" && strings.Contains(strings.ToUpper(o.CarrierName), strings.ToUpper(m.Carrier)) {
		return true
	}
	return m.HonorFlag && o.CarrierFlag
}
