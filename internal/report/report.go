// Package report assembles booking analytics from store aggregates and
// renders them for the terminal or as an XLSX workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mediaops/intake-cli/internal/store"
)

// monthsBack is the default monthly-performance window.
const monthsBack = 6

// topClientLimit caps the client leaderboard.
const topClientLimit = 5

// Aggregates is the slice of the store the reporter reads.
type Aggregates interface {
	ReportSummary(ctx context.Context) (*store.Summary, error)
	StatusDistribution(ctx context.Context) ([]store.StatusCount, error)
	MonthlyPerformance(ctx context.Context, since time.Time) ([]store.MonthlyBucket, error)
	TopClients(ctx context.Context, limit int) ([]store.ClientLeader, error)
}

// Report is the full analytics snapshot.
type Report struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Summary     store.Summary         `json:"summary"`
	Statuses    []store.StatusCount   `json:"status_distribution"`
	Monthly     []store.MonthlyBucket `json:"monthly_performance"`
	TopClients  []store.ClientLeader  `json:"top_clients"`
}

// Service builds reports.
type Service struct {
	agg     Aggregates
	now     func() time.Time
	printer *message.Printer
}

// NewService creates a reporter over the given aggregates.
func NewService(agg Aggregates) *Service {
	return &Service{
		agg:     agg,
		now:     time.Now,
		printer: message.NewPrinter(language.English),
	}
}

// Build runs every aggregate query and assembles the snapshot. The
// monthly window covers the last six calendar months.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	now := s.now().UTC()

	summary, err := s.agg.ReportSummary(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: summary")
	}
	statuses, err := s.agg.StatusDistribution(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: status distribution")
	}
	monthly, err := s.agg.MonthlyPerformance(ctx, now.AddDate(0, -monthsBack, 0))
	if err != nil {
		return nil, eris.Wrap(err, "report: monthly performance")
	}
	top, err := s.agg.TopClients(ctx, topClientLimit)
	if err != nil {
		return nil, eris.Wrap(err, "report: top clients")
	}

	return &Report{
		GeneratedAt: now,
		Summary:     *summary,
		Statuses:    statuses,
		Monthly:     monthly,
		TopClients:  top,
	}, nil
}

// Render writes the report as aligned terminal text.
func (s *Service) Render(w io.Writer, r *Report) error {
	p := s.printer
	if _, err := fmt.Fprintf(w, "Booking Report (%s)\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST")); err != nil {
		return eris.Wrap(err, "report: render")
	}
	p.Fprintf(w, "Total Revenue:     $%.2f\n", r.Summary.TotalRevenue)
	p.Fprintf(w, "Total Bookings:    %d\n", r.Summary.TotalBookings)
	p.Fprintf(w, "Active Clients:    %d\n", r.Summary.ActiveClients)
	p.Fprintf(w, "Avg Booking Value: $%.2f\n", r.Summary.AverageValue)

	fmt.Fprintf(w, "\nStatus Distribution\n")
	for _, sc := range r.Statuses {
		fmt.Fprintf(w, "  %-14s %d\n", sc.Status, sc.Count)
	}

	fmt.Fprintf(w, "\nMonthly Performance (last %d months)\n", monthsBack)
	for _, m := range r.Monthly {
		p.Fprintf(w, "  %s  $%.2f  (%d bookings)\n", m.Month, m.Revenue, m.Bookings)
	}

	fmt.Fprintf(w, "\nTop Clients\n")
	for i, c := range r.TopClients {
		p.Fprintf(w, "  %d. %s  $%.2f  (%d bookings)\n", i+1, c.Name, c.Revenue, c.Bookings)
	}
	return nil
}

// ExportXLSX writes the report as a workbook with one sheet per section.
func ExportXLSX(r *Report, path string) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addRow(summary, "Metric", "Value")
	addFloatRow(summary, "Total Revenue", r.Summary.TotalRevenue)
	addIntRow(summary, "Total Bookings", r.Summary.TotalBookings)
	addIntRow(summary, "Active Clients", r.Summary.ActiveClients)
	addFloatRow(summary, "Avg Booking Value", r.Summary.AverageValue)

	statuses, err := f.AddSheet("Status Distribution")
	if err != nil {
		return eris.Wrap(err, "report: add status sheet")
	}
	addRow(statuses, "Status", "Count")
	for _, sc := range r.Statuses {
		addIntRow(statuses, string(sc.Status), sc.Count)
	}

	monthly, err := f.AddSheet("Monthly Performance")
	if err != nil {
		return eris.Wrap(err, "report: add monthly sheet")
	}
	addRow(monthly, "Month", "Revenue", "Bookings")
	for _, m := range r.Monthly {
		row := monthly.AddRow()
		row.AddCell().SetString(m.Month)
		row.AddCell().SetFloat(m.Revenue)
		row.AddCell().SetInt(m.Bookings)
	}

	top, err := f.AddSheet("Top Clients")
	if err != nil {
		return eris.Wrap(err, "report: add top clients sheet")
	}
	addRow(top, "Client", "Revenue", "Bookings")
	for _, c := range r.TopClients {
		row := top.AddRow()
		row.AddCell().SetString(c.Name)
		row.AddCell().SetFloat(c.Revenue)
		row.AddCell().SetInt(c.Bookings)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func addFloatRow(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(v)
}

func addIntRow(sheet *xlsx.Sheet, label string, v int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(v)
}
