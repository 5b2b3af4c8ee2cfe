// Package validate enforces the two-stage acceptance gate for extracted
// booking records: structural correctness against the 24-field contract,
// then business invariants on structurally valid records. Both stages
// collect every violation before returning so a caller can fix all
// problems in one round trip.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mediaops/intake-cli/internal/model"
)

// Issue codes emitted by the schema validator.
const (
	CodeMissingField   = "missing-field"
	CodeBadDateFormat  = "bad-date-format"
	CodeBadNumericType = "bad-numeric-type"
)

var dateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Issue is a single structural violation: the offending field and a
// stable code.
type Issue struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

// Report is the ordered issue list from a schema check. Empty means the
// record is structurally accepted.
type Report []Issue

// OK reports whether the record passed.
func (r Report) OK() bool { return len(r) == 0 }

// Messages renders the report as human-readable strings, one per issue.
func (r Report) Messages() []string {
	out := make([]string, len(r))
	for i, is := range r {
		out[i] = fmt.Sprintf("%s: %s", is.Field, is.Code)
	}
	return out
}

func (r Report) String() string {
	return strings.Join(r.Messages(), "; ")
}

// Schema checks structural correctness of a candidate record against the
// 24-field contract. Checks run in contract order:
//  1. every field key present (null values count as present)
//  2. date fields null or YYYY-MM-DD
//  3. amount fields null or finite numeric
//
// All issues are collected; the caller surfaces the full list.
func Schema(rec model.CandidateRecord) Report {
	var report Report

	for _, field := range model.RecordFields {
		if !rec.Has(field) {
			report = append(report, Issue{Field: field, Code: CodeMissingField})
		}
	}

	for _, field := range model.DateFields {
		v, ok := rec[field]
		if !ok || v == nil {
			continue // absent is reported above; null is always valid
		}
		s, isStr := v.(string)
		if !isStr || !dateOnlyRe.MatchString(s) {
			report = append(report, Issue{Field: field, Code: CodeBadDateFormat})
		}
	}

	for _, field := range model.AmountFields {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if !model.IsFiniteNumber(v) {
			report = append(report, Issue{Field: field, Code: CodeBadNumericType})
		}
	}

	return report
}
