// Package docgen renders insertion-order documents from bookings. The
// rendering is deterministic: the same booking always produces the same
// bytes, so artifacts can be regenerated and compared.
package docgen

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

// Artifact is a generated insertion-order document on disk plus the path
// it is served under.
type Artifact struct {
	File    string `json:"file"`
	URLPath string `json:"url_path"`
}

// Generator writes insertion-order documents into a directory.
type Generator struct {
	outDir  string
	tmpl    *template.Template
	printer *message.Printer
}

// New creates a Generator writing into outDir. The directory is created
// on first Generate, not here.
func New(outDir string) *Generator {
	g := &Generator{
		outDir:  outDir,
		printer: message.NewPrinter(language.English),
	}
	g.tmpl = template.Must(template.New("insertion-order").Funcs(template.FuncMap{
		"str":   orNA,
		"money": g.money,
	}).Parse(documentTemplate))
	return g
}

// ArtifactName returns the canonical file name for a campaign reference.
func ArtifactName(campaignRef string) string {
	return "booking-" + campaignRef + ".pdf"
}

// URLPath returns the path the artifact is served under.
func URLPath(campaignRef string) string {
	return "/pdfs/" + ArtifactName(campaignRef)
}

// Render produces the document bytes for a booking without touching disk.
func (g *Generator) Render(b *model.Booking) ([]byte, error) {
	if b.CampaignRef == nil || strings.TrimSpace(*b.CampaignRef) == "" {
		return nil, fault.New(fault.KindInput, "booking has no campaign reference")
	}
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, b); err != nil {
		return nil, fault.Wrap(err, fault.KindInput, "insertion order rendering failed")
	}
	return buf.Bytes(), nil
}

// Generate renders the booking and writes the artifact file.
func (g *Generator) Generate(b *model.Booking) (Artifact, error) {
	data, err := g.Render(b)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return Artifact{}, fault.Wrap(err, fault.KindInput, "cannot create document output directory")
	}
	name := ArtifactName(*b.CampaignRef)
	file := filepath.Join(g.outDir, name)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return Artifact{}, fault.Wrap(err, fault.KindInput, "cannot write insertion order document")
	}
	return Artifact{File: file, URLPath: URLPath(*b.CampaignRef)}, nil
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func (g *Generator) money(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return g.printer.Sprintf("$%.2f", *f)
}

const documentTemplate = `INSERTION ORDER
===============

Reference: {{str .CampaignRef}}
Campaign:  {{str .CampaignName}}
Status:    {{.Status}} ({{.Progress}}%)
Priority:  {{.Priority}}

CLIENT
------
Client:              {{str .ClientName}}
Contact:             {{str .ContactName}}
Email:               {{str .ContactEmail}}
Phone:               {{str .ContactPhone}}
Address:             {{str .Address}}
Industry Segment:    {{str .IndustrySegment}}
Tax Registration No: {{str .TaxRegistrationNo}}

CAMPAIGN
--------
Start Date:             {{str .StartDate}}
End Date:               {{str .EndDate}}
Creative Delivery Date: {{str .CreativeDeliveryDate}}
Media Type:             {{str .MediaType}}
Placement Preferences:  {{str .PlacementPreferences}}
Creative Specs:         {{str .CreativeSpecs}}
Creative File Link:     {{str .CreativeFileLink}}
Special Instructions:   {{str .SpecialInstructions}}

FINANCIAL SUMMARY
-----------------
Gross Amount:       {{money .GrossAmount}}
Partner Discount:   {{money .PartnerDiscount}}
Additional Charges: {{money .AdditionalCharges}}
Net Amount:         {{money .NetAmount}}

SIGNATORY
---------
Name:  {{str .SignatoryName}}
Title: {{str .SignatoryTitle}}
Date:  {{str .SignatureDate}}
`
