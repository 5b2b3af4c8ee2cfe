// Package intake orchestrates the booking pipeline: normalize input,
// extract the candidate record, validate it, classify priority, and
// persist the booking with its initial audit event. It also applies
// review decisions and direct status changes through the lifecycle
// machine.
package intake

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mediaops/intake-cli/internal/extract"
	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/ingest"
	"github.com/mediaops/intake-cli/internal/lifecycle"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/internal/validate"
)

// Storage is the slice of the store the pipeline writes through.
type Storage interface {
	CreateBooking(ctx context.Context, b *model.Booking, note string) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus, progress int, note string) error
	GetInboxItem(ctx context.Context, id string) (*model.InboxItem, error)
	UpdateRepStatus(ctx context.Context, inboxID string, rep model.RepStatus) error
}

// Service runs submissions end to end.
type Service struct {
	ingestor  *ingest.Ingestor
	extractor extract.Adapter
	store     Storage
	machine   *lifecycle.Machine
	log       *zap.Logger
}

// NewService wires the pipeline stages together.
func NewService(ing *ingest.Ingestor, ex extract.Adapter, st Storage, m *lifecycle.Machine) *Service {
	return &Service{
		ingestor:  ing,
		extractor: ex,
		store:     st,
		machine:   m,
		log:       zap.L().Named("intake"),
	}
}

// SubmitText runs the pipeline on inline free text.
func (s *Service) SubmitText(ctx context.Context, submittedBy, text string) (*model.Booking, error) {
	sub, err := s.ingestor.FromText(text)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, submittedBy, sub)
}

// SubmitUpload runs the pipeline on an uploaded payload, classified by
// content sniffing.
func (s *Service) SubmitUpload(ctx context.Context, submittedBy string, data []byte) (*model.Booking, error) {
	sub, err := s.ingestor.FromUpload(data)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, submittedBy, sub)
}

// SubmitURL fetches a remote document and runs the pipeline on it.
func (s *Service) SubmitURL(ctx context.Context, submittedBy, rawURL string) (*model.Booking, error) {
	sub, err := s.ingestor.FromURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, submittedBy, sub)
}

// process is the shared tail of every submission path: extract, validate,
// classify, persist.
func (s *Service) process(ctx context.Context, submittedBy string, sub model.Submission) (*model.Booking, error) {
	if strings.TrimSpace(submittedBy) == "" {
		return nil, fault.New(fault.KindInput, "submitted_by is required")
	}

	rec, err := s.extractor.Extract(ctx, sub)
	if err != nil {
		return nil, err
	}

	if report := validate.Schema(rec); !report.OK() {
		s.log.Info("record rejected by schema validation",
			zap.String("submitted_by", submittedBy),
			zap.Int("issues", len(report)),
		)
		return nil, fault.Validation("Validation failed", report.Messages())
	}
	if errs := validate.Business(rec); len(errs) > 0 {
		s.log.Info("record rejected by business validation",
			zap.String("submitted_by", submittedBy),
			zap.Strings("errors", errs),
		)
		return nil, fault.Validation("Validation failed", errs)
	}

	b := &model.Booking{SubmittedBy: submittedBy}
	b.FromCandidate(rec)

	var net float64
	if b.NetAmount != nil {
		net = *b.NetAmount
	}
	b.Priority = model.ClassifyPriority(net)

	init := lifecycle.Initial()
	b.Status = init.Status
	b.Progress = init.Progress

	if err := s.store.CreateBooking(ctx, b, init.Note); err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("submitted_by", submittedBy),
		zap.String("priority", string(b.Priority)),
		zap.String("kind", string(sub.Kind)),
	)
	return b, nil
}

// Review applies a sales-rep decision to an inbox item. Confirmed and
// rejected decisions also force the underlying booking status; pending
// and reviewed only move the inbox item.
func (s *Service) Review(ctx context.Context, inboxID string, rep model.RepStatus) (*model.InboxItem, error) {
	item, err := s.store.GetInboxItem(ctx, inboxID)
	if err != nil {
		return nil, err
	}

	t, forced, err := s.machine.RepDecision(rep)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateRepStatus(ctx, inboxID, rep); err != nil {
		return nil, err
	}
	item.RepStatus = rep

	if forced {
		if err := s.store.UpdateBookingStatus(ctx, item.BookingID, t.Status, t.Progress, t.Note); err != nil {
			return nil, err
		}
		s.log.Info("rep decision forced booking status",
			zap.String("booking_id", item.BookingID),
			zap.String("rep_status", string(rep)),
			zap.String("status", string(t.Status)),
		)
	}
	return item, nil
}

// SetStatus applies a direct status transition to a booking. An empty
// note gets the standard wording from the lifecycle machine.
func (s *Service) SetStatus(ctx context.Context, bookingID string, target model.BookingStatus, note string) (*model.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	t, err := s.machine.Direct(b.Status, target, note)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, t.Status, t.Progress, t.Note); err != nil {
		return nil, err
	}
	b.Status = t.Status
	b.Progress = t.Progress
	return b, nil
}
