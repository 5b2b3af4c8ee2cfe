package model

// Priority is the review-queue tier derived from financial magnitude.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priority cutoffs in booking currency units.
const (
	priorityHighAbove = 10000
	priorityLowBelow  = 5000
)

// ClassifyPriority derives the tier from the net amount supplied at
// booking creation. It is evaluated once; later edits never recompute it.
func ClassifyPriority(netAmount float64) Priority {
	switch {
	case netAmount > priorityHighAbove:
		return PriorityHigh
	case netAmount < priorityLowBelow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}
