// Package store persists bookings, their audit history, the sales-rep
// review inbox, and notification settings. Two backends implement the
// same interface: Postgres via pgxpool for shared deployments, SQLite
// for local single-user runs.
package store

import (
	"context"
	"time"

	"github.com/mediaops/intake-cli/internal/model"
)

// BookingFilter specifies criteria for listing bookings.
type BookingFilter struct {
	Status      model.BookingStatus `json:"status,omitempty"`
	Priority    model.Priority      `json:"priority,omitempty"`
	SubmittedBy string              `json:"submitted_by,omitempty"`
	Limit       int                 `json:"limit,omitempty"`
	Offset      int                 `json:"offset,omitempty"`
}

// InboxFilter specifies criteria for listing review-queue items. An empty
// SubmittedBy lists every item (the sales view); a non-empty one narrows
// to bookings submitted by that caller.
type InboxFilter struct {
	SubmittedBy string `json:"submitted_by,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

// Summary is the headline report block: totals across all bookings.
type Summary struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalBookings int     `json:"total_bookings"`
	ActiveClients int     `json:"active_clients"`
	AverageValue  float64 `json:"avg_booking_value"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status model.BookingStatus `json:"status"`
	Count  int                 `json:"count"`
}

// MonthlyBucket aggregates revenue and volume for one calendar month,
// keyed YYYY-MM.
type MonthlyBucket struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// ClientLeader is one row of the top-clients ranking.
type ClientLeader struct {
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// Store defines the persistence interface for the intake pipeline.
//
// CreateBooking and UpdateBookingStatus each write their audit history
// row in the same transaction as the booking mutation, so a status can
// never change without exactly one matching event.
type Store interface {
	// Bookings
	CreateBooking(ctx context.Context, b *model.Booking, note string) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	GetBookingByRef(ctx context.Context, campaignRef string) (*model.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus, progress int, note string) error

	// Audit trail
	Timeline(ctx context.Context, bookingID string) ([]model.TimelineEntry, error)

	// Sales rep inbox
	ListInbox(ctx context.Context, filter InboxFilter) ([]model.InboxItem, error)
	GetInboxItem(ctx context.Context, id string) (*model.InboxItem, error)
	UpdateRepStatus(ctx context.Context, inboxID string, rep model.RepStatus) error

	// Settings
	GetSettings(ctx context.Context, owner string) (*model.Settings, error)
	PutSettings(ctx context.Context, s model.Settings) error

	// Reports
	ReportSummary(ctx context.Context) (*Summary, error)
	StatusDistribution(ctx context.Context) ([]StatusCount, error)
	MonthlyPerformance(ctx context.Context, since time.Time) ([]MonthlyBucket, error)
	TopClients(ctx context.Context, limit int) ([]ClientLeader, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
