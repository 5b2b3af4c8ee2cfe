package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

func TestProgressFor(t *testing.T) {
	cases := map[model.BookingStatus]int{
		model.StatusSubmitted:    0,
		model.StatusPDFGenerated: 25,
		model.StatusSent:         50,
		model.StatusConfirmed:    100,
		model.StatusRejected:     0,
	}
	for status, want := range cases {
		got, ok := ProgressFor(status)
		assert.True(t, ok, status)
		assert.Equal(t, want, got, status)
	}

	_, ok := ProgressFor("in_review")
	assert.False(t, ok)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.StatusConfirmed))
	assert.True(t, IsTerminal(model.StatusRejected))
	assert.False(t, IsTerminal(model.StatusSubmitted))
	assert.False(t, IsTerminal(model.StatusSent))
}

func TestInitial(t *testing.T) {
	tr := Initial()
	assert.Equal(t, model.StatusSubmitted, tr.Status)
	assert.Equal(t, 0, tr.Progress)
	assert.Equal(t, "Booking submitted successfully", tr.Note)
}

func TestDirect_KnownTarget(t *testing.T) {
	m := New(Policy{})

	tr, err := m.Direct(model.StatusSubmitted, model.StatusSent, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, tr.Status)
	assert.Equal(t, 50, tr.Progress)
	assert.Equal(t, "Status updated to sent", tr.Note)
}

func TestDirect_CustomNote(t *testing.T) {
	m := New(Policy{})

	tr, err := m.Direct(model.StatusSubmitted, model.StatusPDFGenerated, "PDF generated successfully")
	require.NoError(t, err)
	assert.Equal(t, 25, tr.Progress)
	assert.Equal(t, "PDF generated successfully", tr.Note)
}

func TestDirect_UnknownTarget(t *testing.T) {
	m := New(Policy{})

	_, err := m.Direct(model.StatusSubmitted, "in_review", "")
	require.Error(t, err)
	assert.Equal(t, fault.KindInput, fault.KindOf(err))
}

func TestDirect_UnknownTargetAllowedByPolicy(t *testing.T) {
	m := New(Policy{AllowUnknownStatus: true})

	tr, err := m.Direct(model.StatusSubmitted, "in_review", "")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatus("in_review"), tr.Status)
	assert.Equal(t, 0, tr.Progress)
	assert.Equal(t, "Status updated to in_review", tr.Note)
}

func TestDirect_TerminalBlocked(t *testing.T) {
	m := New(Policy{})

	for _, terminal := range []model.BookingStatus{model.StatusConfirmed, model.StatusRejected} {
		_, err := m.Direct(terminal, model.StatusSent, "")
		require.Error(t, err, terminal)
		assert.Equal(t, fault.KindInput, fault.KindOf(err))
	}
}

func TestDirect_TerminalOverrideAllowedByPolicy(t *testing.T) {
	m := New(Policy{AllowTerminalOverride: true})

	tr, err := m.Direct(model.StatusConfirmed, model.StatusSent, "audit correction")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, tr.Status)
	assert.Equal(t, "audit correction", tr.Note)
}

func TestDirect_SameTerminalStatusAllowed(t *testing.T) {
	m := New(Policy{})

	// Re-asserting the current terminal state is not a transition out.
	tr, err := m.Direct(model.StatusConfirmed, model.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, tr.Status)
	assert.Equal(t, 100, tr.Progress)
}

func TestRepDecision_Confirmed(t *testing.T) {
	m := New(Policy{})

	tr, forced, err := m.RepDecision(model.RepConfirmed)
	require.NoError(t, err)
	assert.True(t, forced)
	assert.Equal(t, model.StatusConfirmed, tr.Status)
	assert.Equal(t, 100, tr.Progress)
	assert.Equal(t, "Sales rep confirmed the booking", tr.Note)
}

func TestRepDecision_Rejected(t *testing.T) {
	m := New(Policy{})

	tr, forced, err := m.RepDecision(model.RepRejected)
	require.NoError(t, err)
	assert.True(t, forced)
	assert.Equal(t, model.StatusRejected, tr.Status)
	assert.Equal(t, 0, tr.Progress)
	assert.Equal(t, "Sales rep rejected the booking", tr.Note)
}

func TestRepDecision_PendingAndReviewedLeaveBooking(t *testing.T) {
	m := New(Policy{})

	for _, rep := range []model.RepStatus{model.RepPending, model.RepReviewed} {
		_, forced, err := m.RepDecision(rep)
		require.NoError(t, err, rep)
		assert.False(t, forced, rep)
	}
}

func TestRepDecision_Unknown(t *testing.T) {
	m := New(Policy{})

	_, _, err := m.RepDecision("escalated")
	require.Error(t, err)
	assert.Equal(t, fault.KindInput, fault.KindOf(err))
	assert.Contains(t, err.Error(), "pending, reviewed, confirmed, rejected")
}
