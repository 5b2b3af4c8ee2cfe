// Package lifecycle implements the booking state machine: fixed
// status/progress pairs, direct transitions, and sales-rep decisions that
// force the booking status. Every computed transition maps to exactly one
// audit event.
package lifecycle

import (
	"fmt"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

// Policy resolves the two behaviors the source system left implicit:
// what to do with unknown target statuses, and whether terminal states
// block further direct transitions.
type Policy struct {
	// AllowUnknownStatus accepts unrecognized target statuses with
	// progress 0 instead of rejecting them as input faults.
	AllowUnknownStatus bool

	// AllowTerminalOverride permits direct transitions out of confirmed
	// and rejected, for audit corrections.
	AllowTerminalOverride bool
}

// progressFor holds the fixed progress value of each known status.
var progressFor = map[model.BookingStatus]int{
	model.StatusSubmitted:    0,
	model.StatusPDFGenerated: 25,
	model.StatusSent:         50,
	model.StatusConfirmed:    100,
	model.StatusRejected:     0,
}

// ProgressFor returns the fixed progress for a status and whether the
// status is a known lifecycle state.
func ProgressFor(status model.BookingStatus) (int, bool) {
	p, ok := progressFor[status]
	return p, ok
}

// IsTerminal reports whether no further transitions are expected out of
// the status.
func IsTerminal(status model.BookingStatus) bool {
	return status == model.StatusConfirmed || status == model.StatusRejected
}

// Transition is a computed state change plus the audit note to record
// with it.
type Transition struct {
	Status   model.BookingStatus
	Progress int
	Note     string
}

// Machine applies transitions under a policy.
type Machine struct {
	policy Policy
}

// New creates a Machine with the given policy.
func New(policy Policy) *Machine {
	return &Machine{policy: policy}
}

// Initial returns the state of a freshly created booking.
func Initial() Transition {
	return Transition{
		Status:   model.StatusSubmitted,
		Progress: 0,
		Note:     "Booking submitted successfully",
	}
}

// Direct computes an explicit status transition. An empty note gets the
// standard "Status updated to X" wording. Unknown targets and transitions
// out of a terminal state are input faults unless the policy allows them.
func (m *Machine) Direct(current, target model.BookingStatus, note string) (Transition, error) {
	if IsTerminal(current) && current != target && !m.policy.AllowTerminalOverride {
		return Transition{}, fault.New(fault.KindInput,
			"booking is %s; no further status transitions are allowed", current)
	}

	progress, known := progressFor[target]
	if !known {
		if !m.policy.AllowUnknownStatus {
			return Transition{}, fault.New(fault.KindInput, "unknown status %q", target)
		}
		progress = 0
	}

	if note == "" {
		note = fmt.Sprintf("Status updated to %s", target)
	}
	return Transition{Status: target, Progress: progress, Note: note}, nil
}

// RepDecision computes the booking-side effect of a sales-rep status
// change. Confirmed and rejected decisions force the booking status
// regardless of its current state; pending and reviewed leave it
// untouched (forced == false). Unknown rep statuses are input faults.
func (m *Machine) RepDecision(rep model.RepStatus) (Transition, bool, error) {
	switch rep {
	case model.RepConfirmed:
		return Transition{
			Status:   model.StatusConfirmed,
			Progress: 100,
			Note:     "Sales rep confirmed the booking",
		}, true, nil
	case model.RepRejected:
		return Transition{
			Status:   model.StatusRejected,
			Progress: 0,
			Note:     "Sales rep rejected the booking",
		}, true, nil
	case model.RepPending, model.RepReviewed:
		return Transition{}, false, nil
	default:
		return Transition{}, false, fault.New(fault.KindInput,
			"invalid rep status %q; must be one of: pending, reviewed, confirmed, rejected", rep)
	}
}
