package model

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
)

// SubmissionKind tags how a booking document arrived.
type SubmissionKind string

const (
	// SubmissionText is inline free text.
	SubmissionText SubmissionKind = "text"
	// SubmissionRemoteDocument is a PDF fetched from a URL.
	SubmissionRemoteDocument SubmissionKind = "remote_document"
	// SubmissionUploadedDocument is a document handed to a backend that
	// processes it asynchronously.
	SubmissionUploadedDocument SubmissionKind = "uploaded_document"
)

// Submission is a normalized intake payload. Created per request, consumed
// exactly once, never persisted.
type Submission struct {
	Kind      SubmissionKind
	Content   []byte
	SourceURI string
}

// RecordFields lists the 24 extraction target fields in contract order.
var RecordFields = []string{
	"clientName", "contactName", "contactEmail", "contactPhone", "address",
	"industrySegment", "taxRegistrationNo", "campaignName", "campaignRef",
	"startDate", "endDate", "creativeDeliveryDate", "mediaType",
	"placementPreferences", "grossAmount", "partnerDiscount",
	"additionalCharges", "netAmount", "creativeFileLink", "creativeSpecs",
	"specialInstructions", "signatoryName", "signatoryTitle", "signatureDate",
}

// DateFields are the calendar-date members of the contract.
var DateFields = []string{"startDate", "endDate", "creativeDeliveryDate", "signatureDate"}

// AmountFields are the numeric members of the contract.
var AmountFields = []string{"grossAmount", "partnerDiscount", "additionalCharges", "netAmount"}

// CandidateRecord is the unvalidated 24-field mapping produced by
// extraction. Absent information is an explicit null value, never a
// missing key; key presence itself is what the schema validator checks,
// so the record stays map-backed until validation accepts it.
type CandidateRecord map[string]any

// ParseCandidateRecord decodes raw JSON into a CandidateRecord. It only
// guarantees well-formed JSON; field presence and types are the schema
// validator's job.
func ParseCandidateRecord(raw []byte) (CandidateRecord, error) {
	var rec CandidateRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, eris.Wrap(err, "record: decode candidate")
	}
	return rec, nil
}

// Has reports whether the field key is present (even with a null value).
func (r CandidateRecord) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// String returns the field as a string pointer, nil for null/absent values.
func (r CandidateRecord) String(field string) *string {
	v, ok := r[field]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// Number returns the field as a float64 pointer, nil for null/absent or
// non-numeric values.
func (r CandidateRecord) Number(field string) *float64 {
	v, ok := r[field]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// IsFiniteNumber reports whether v is a numeric value that is neither NaN
// nor infinite. Null is not a number.
func IsFiniteNumber(v any) bool {
	switch n := v.(type) {
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case int, int64:
		return true
	case json.Number:
		f, err := n.Float64()
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}
