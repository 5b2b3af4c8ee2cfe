// Package notify builds and sends booking notification email. Message
// construction is separated from delivery so the content can be tested
// without an SMTP server.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"regexp"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/mediaops/intake-cli/internal/docgen"
	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
)

// DefaultRecipients is used when the submitter has no stored settings.
var DefaultRecipients = []string{"salesrep@mediaco.test", "team@company.com"}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateRecipients rejects a recipient list containing malformed
// addresses. All bad entries are reported, not just the first.
func ValidateRecipients(recipients []string) error {
	if len(recipients) == 0 {
		return fault.New(fault.KindInput, "email recipients must not be empty")
	}
	var invalid []string
	for _, r := range recipients {
		if !emailRe.MatchString(r) {
			invalid = append(invalid, r)
		}
	}
	if len(invalid) > 0 {
		return fault.Validation("Invalid email format", invalid)
	}
	return nil
}

// SettingsReader is the slice of the store the notifier reads.
type SettingsReader interface {
	GetSettings(ctx context.Context, owner string) (*model.Settings, error)
}

// ResolveRecipients returns the owner's stored recipient list, or the
// default list when none is stored.
func ResolveRecipients(ctx context.Context, settings SettingsReader, owner string) ([]string, error) {
	s, err := settings.GetSettings(ctx, owner)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return DefaultRecipients, nil
		}
		return nil, err
	}
	if len(s.EmailRecipients) == 0 {
		return DefaultRecipients, nil
	}
	return s.EmailRecipients, nil
}

// Message is a fully built outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// SentNote is the audit note recorded after a successful send.
func SentNote(recipients []string) string {
	return "Email sent to " + strings.Join(recipients, ", ")
}

// BuildBookingEmail renders the booking summary message for the given
// recipients, pointing at the generated insertion-order artifact.
func BuildBookingEmail(b *model.Booking, recipients []string) (Message, error) {
	if b.CampaignRef == nil || b.CampaignName == nil {
		return Message{}, fault.New(fault.KindInput, "booking is missing campaign name or reference")
	}
	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, bookingEmailView{
		Booking: b,
		PDFPath: docgen.URLPath(*b.CampaignRef),
	}); err != nil {
		return Message{}, fault.Wrap(err, fault.KindInput, "email rendering failed")
	}
	return Message{
		To:      recipients,
		Subject: fmt.Sprintf("Booking %s - %s", *b.CampaignRef, *b.CampaignName),
		Body:    buf.String(),
	}, nil
}

type bookingEmailView struct {
	*model.Booking
	PDFPath string
}

var bodyTmpl = template.Must(template.New("booking-email").Funcs(template.FuncMap{
	"str": func(s *string) string {
		if s == nil || *s == "" {
			return "N/A"
		}
		return *s
	},
	"amt": func(f *float64) string {
		if f == nil {
			return "N/A"
		}
		return fmt.Sprintf("%.2f", *f)
	},
}).Parse(`New Booking Created

Campaign Information
  Name:      {{str .CampaignName}}
  Reference: {{str .CampaignRef}}

Client Details
  Client:  {{str .ClientName}}
  Contact: {{str .ContactName}}
  Email:   {{str .ContactEmail}}
  Phone:   {{str .ContactPhone}}

Campaign Details
  Start Date: {{str .StartDate}}
  End Date:   {{str .EndDate}}
  Media Type: {{str .MediaType}}

Financial Summary
  Gross Amount:       {{amt .GrossAmount}}
  Partner Discount:   {{amt .PartnerDiscount}}
  Additional Charges: {{amt .AdditionalCharges}}
  Net Amount:         {{amt .NetAmount}}

Status: {{.Status}} ({{.Progress}}%)

A document version of this booking is available at: {{.PDFPath}}

This email was automatically generated by the booking system.
Booking ID: {{.ID}}
`))

// Mailer delivers built messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP mailer.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

// SMTPMailer sends over plain SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
	log *zap.Logger
}

// NewSMTPMailer creates a mailer for the given server.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, log: zap.L().Named("notify")}
}

// Send delivers the message. The caller's From is used when set,
// otherwise the configured sender.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fault.Wrap(err, fault.KindUpstream, "email send canceled")
	}
	from := msg.From
	if from == "" {
		from = m.cfg.From
	}
	if from == "" {
		return fault.New(fault.KindInput, "email sender address is not configured")
	}
	if len(msg.To) == 0 {
		return fault.New(fault.KindInput, "email recipients must not be empty")
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, from, msg.To, EncodeMessage(from, msg)); err != nil {
		return fault.Wrap(err, fault.KindUpstream, "email delivery failed")
	}
	m.log.Info("email sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)),
	)
	return nil
}

// EncodeMessage renders the RFC 5322 wire form of a message.
func EncodeMessage(from string, msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)
	return buf.Bytes()
}
