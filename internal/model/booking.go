package model

import "time"

// BookingStatus is the coarse lifecycle stage of a booking.
type BookingStatus string

const (
	StatusSubmitted    BookingStatus = "submitted"
	StatusPDFGenerated BookingStatus = "pdf_generated"
	StatusSent         BookingStatus = "sent"
	StatusConfirmed    BookingStatus = "confirmed"
	StatusRejected     BookingStatus = "rejected"
)

// RepStatus is the sales reviewer's independent decision state.
type RepStatus string

const (
	RepPending   RepStatus = "pending"
	RepReviewed  RepStatus = "reviewed"
	RepConfirmed RepStatus = "confirmed"
	RepRejected  RepStatus = "rejected"
)

// ValidRepStatus reports whether s is one of the four known rep states.
func ValidRepStatus(s RepStatus) bool {
	switch s {
	case RepPending, RepReviewed, RepConfirmed, RepRejected:
		return true
	}
	return false
}

// Booking is the persisted, validated record tracked through its lifecycle.
// Nullable contract fields are pointers; campaign_ref is unique across all
// bookings, enforced by the store's constraint layer.
type Booking struct {
	ID          string `json:"id" yaml:"id"`
	SubmittedBy string `json:"submitted_by" yaml:"submitted_by"`

	ClientName           *string  `json:"client_name" yaml:"client_name"`
	ContactName          *string  `json:"contact_name" yaml:"contact_name"`
	ContactEmail         *string  `json:"contact_email" yaml:"contact_email"`
	ContactPhone         *string  `json:"contact_phone" yaml:"contact_phone"`
	Address              *string  `json:"address" yaml:"address"`
	IndustrySegment      *string  `json:"industry_segment" yaml:"industry_segment"`
	TaxRegistrationNo    *string  `json:"tax_registration_no" yaml:"tax_registration_no"`
	CampaignName         *string  `json:"campaign_name" yaml:"campaign_name"`
	CampaignRef          *string  `json:"campaign_ref" yaml:"campaign_ref"`
	StartDate            *string  `json:"start_date" yaml:"start_date"`
	EndDate              *string  `json:"end_date" yaml:"end_date"`
	CreativeDeliveryDate *string  `json:"creative_delivery_date" yaml:"creative_delivery_date"`
	MediaType            *string  `json:"media_type" yaml:"media_type"`
	PlacementPreferences *string  `json:"placement_preferences" yaml:"placement_preferences"`
	GrossAmount          *float64 `json:"gross_amount" yaml:"gross_amount"`
	PartnerDiscount      *float64 `json:"partner_discount" yaml:"partner_discount"`
	AdditionalCharges    *float64 `json:"additional_charges" yaml:"additional_charges"`
	NetAmount            *float64 `json:"net_amount" yaml:"net_amount"`
	CreativeFileLink     *string  `json:"creative_file_link" yaml:"creative_file_link"`
	CreativeSpecs        *string  `json:"creative_specs" yaml:"creative_specs"`
	SpecialInstructions  *string  `json:"special_instructions" yaml:"special_instructions"`
	SignatoryName        *string  `json:"signatory_name" yaml:"signatory_name"`
	SignatoryTitle       *string  `json:"signatory_title" yaml:"signatory_title"`
	SignatureDate        *string  `json:"signature_date" yaml:"signature_date"`

	Status    BookingStatus `json:"status" yaml:"status"`
	Progress  int           `json:"progress" yaml:"progress"`
	Priority  Priority      `json:"priority" yaml:"priority"`
	RepStatus RepStatus     `json:"rep_status" yaml:"rep_status"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"updated_at"`
}

// FromCandidate maps an accepted CandidateRecord onto the booking's
// contract fields. Lifecycle fields are left for the caller.
func (b *Booking) FromCandidate(rec CandidateRecord) {
	b.ClientName = rec.String("clientName")
	b.ContactName = rec.String("contactName")
	b.ContactEmail = rec.String("contactEmail")
	b.ContactPhone = rec.String("contactPhone")
	b.Address = rec.String("address")
	b.IndustrySegment = rec.String("industrySegment")
	b.TaxRegistrationNo = rec.String("taxRegistrationNo")
	b.CampaignName = rec.String("campaignName")
	b.CampaignRef = rec.String("campaignRef")
	b.StartDate = rec.String("startDate")
	b.EndDate = rec.String("endDate")
	b.CreativeDeliveryDate = rec.String("creativeDeliveryDate")
	b.MediaType = rec.String("mediaType")
	b.PlacementPreferences = rec.String("placementPreferences")
	b.GrossAmount = rec.Number("grossAmount")
	b.PartnerDiscount = rec.Number("partnerDiscount")
	b.AdditionalCharges = rec.Number("additionalCharges")
	b.NetAmount = rec.Number("netAmount")
	b.CreativeFileLink = rec.String("creativeFileLink")
	b.CreativeSpecs = rec.String("creativeSpecs")
	b.SpecialInstructions = rec.String("specialInstructions")
	b.SignatoryName = rec.String("signatoryName")
	b.SignatoryTitle = rec.String("signatoryTitle")
	b.SignatureDate = rec.String("signatureDate")
}

// StatusEvent is one append-only audit entry for a booking. Events are
// never mutated or deleted; ordered by OccurredAt they form the booking's
// full history.
type StatusEvent struct {
	ID         string        `json:"id"`
	BookingID  string        `json:"booking_id"`
	Status     BookingStatus `json:"status"`
	Note       string        `json:"note"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// TimelineEntry is the audit read model: status + occurrence time,
// oldest first.
type TimelineEntry struct {
	Status     BookingStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// InboxItem is a sales-rep review queue entry, created once per booking
// at intake time.
type InboxItem struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Priority  Priority  `json:"priority"`
	RepStatus RepStatus `json:"rep_status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined booking columns for listing.
	CampaignName *string  `json:"campaign_name,omitempty"`
	ClientName   *string  `json:"client_name,omitempty"`
	NetAmount    *float64 `json:"net_amount,omitempty"`
}

// Settings holds per-owner notification preferences.
type Settings struct {
	Owner           string    `json:"owner"`
	EmailRecipients []string  `json:"email_recipients"`
	UpdatedAt       time.Time `json:"updated_at"`
}
