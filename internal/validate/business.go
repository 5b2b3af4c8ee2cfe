package validate

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/mediaops/intake-cli/internal/model"
)

var (
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe       = regexp.MustCompile(`^[+]?[0-9\s\-()]+$`)
	campaignRefRe = regexp.MustCompile(`^[A-Z]{2}-\d{4}-\d{3}$`)
)

// requiredFields is the subset that must be non-null for a record to
// become a booking.
var requiredFields = []string{
	"clientName", "contactEmail", "campaignName", "startDate", "endDate", "grossAmount",
}

// reconciliationTolerance is the absolute allowance on the net amount
// check, covering rounding in the source document.
const reconciliationTolerance = 1.0

// Business checks semantic invariants on a structurally valid record.
// Every failed check contributes one message; a non-empty result rejects
// the record as a whole.
func Business(rec model.CandidateRecord) []string {
	var errs []string

	for _, field := range requiredFields {
		if isBlank(rec[field]) {
			errs = append(errs, fmt.Sprintf("%s is required", field))
		}
	}

	if email := rec.String("contactEmail"); email != nil && !emailRe.MatchString(*email) {
		errs = append(errs, "Invalid email format")
	}

	if phone := rec.String("contactPhone"); phone != nil && !phoneRe.MatchString(*phone) {
		errs = append(errs, "Invalid phone number format")
	}

	if start, end := rec.String("startDate"), rec.String("endDate"); start != nil && end != nil {
		if startT, endT, ok := parseDatePair(*start, *end); ok && !startT.Before(endT) {
			errs = append(errs, "End date must be after start date")
		}
	}

	gross := rec.Number("grossAmount")
	discount := rec.Number("partnerDiscount")
	charges := rec.Number("additionalCharges")
	net := rec.Number("netAmount")
	if gross != nil && discount != nil && charges != nil && net != nil {
		calculated := *gross - (*gross * *discount / 100) + *charges
		if math.Abs(calculated-*net) > reconciliationTolerance {
			errs = append(errs, "Net amount calculation mismatch")
		}
	}

	if ref := rec.String("campaignRef"); ref != nil && !campaignRefRe.MatchString(*ref) {
		errs = append(errs, "Campaign reference should be in format: XX-YYYY-ZZZ")
	}

	return errs
}

// isBlank treats null, absent, and empty-string values as missing for the
// required-field check.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// parseDatePair parses both dates; malformed values are the schema
// validator's concern, so an unparseable pair skips the ordering check.
func parseDatePair(start, end string) (time.Time, time.Time, bool) {
	startT, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endT, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return startT, endT, true
}
