package models

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomePartial   OutcomeStatus = "partial"
	OutcomeRejected  OutcomeStatus = "rejected"
)

// Outcome is the structured result of a batch operation. Items that could
// not be placed or were filtered out are listed, never silently dropped.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	Processed   int           `json:"processed"`
	Unscheduled []string      `json:"unscheduled,omitempty"`
	Excluded    []string      `json:"excluded,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// NewOutcome derives the status from the collected lists.
func NewOutcome(processed int, unscheduled, excluded []string) Outcome {
	o := Outcome{Status: OutcomeSucceeded, Processed: processed, Unscheduled: unscheduled, Excluded: excluded}
	if len(unscheduled) > 0 || len(excluded) > 0 {
		o.Status = OutcomePartial
	}
	return o
}

func Rejected(msg string) Outcome {
	return Outcome{Status: OutcomeRejected, Message: msg}
}
