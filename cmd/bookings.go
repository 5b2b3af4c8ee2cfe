package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediaops/intake-cli/internal/docgen"
	"github.com/mediaops/intake-cli/internal/intake"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/internal/notify"
	"github.com/mediaops/intake-cli/internal/report"
	"github.com/mediaops/intake-cli/internal/store"
)

var (
	bookingsStatus      string
	bookingsPriority    string
	bookingsSubmittedBy string
	bookingsLimit       int
	bookingsOffset      int
	bookingsOutput      string
	bookingsNote        string
	bookingsExportPath  string
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Inspect and manage stored bookings",
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		bookings, err := st.ListBookings(ctx, store.BookingFilter{
			Status:      model.BookingStatus(bookingsStatus),
			Priority:    model.Priority(bookingsPriority),
			SubmittedBy: bookingsSubmittedBy,
			Limit:       bookingsLimit,
			Offset:      bookingsOffset,
		})
		if err != nil {
			return reportFault(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tREF\tCLIENT\tSTATUS\tPROGRESS\tPRIORITY\tREP\tCREATED")
		for _, b := range bookings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\t%s\t%s\n",
				b.ID,
				deref(b.CampaignRef),
				deref(b.ClientName),
				b.Status,
				b.Progress,
				b.Priority,
				b.RepStatus,
				b.CreatedAt.Format("2006-01-02"),
			)
		}
		return w.Flush()
	},
}

var bookingsGetCmd = &cobra.Command{
	Use:   "get <booking-id-or-ref>",
	Short: "Show one booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		b, err := getBooking(cmd, st, args[0])
		if err != nil {
			return reportFault(err)
		}
		return printOut(b, bookingsOutput)
	},
}

var bookingsSetStatusCmd = &cobra.Command{
	Use:   "set-status <booking-id> <status>",
	Short: "Apply a direct status transition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := intake.NewService(nil, nil, st, newMachine())
		b, err := svc.SetStatus(ctx, args[0], model.BookingStatus(args[1]), bookingsNote)
		if err != nil {
			return reportFault(err)
		}
		return printOut(b, bookingsOutput)
	},
}

var bookingsTimelineCmd = &cobra.Command{
	Use:   "timeline <booking-id>",
	Short: "Show the booking's status history, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if len(args) != 1 {
			return eris.New("booking id is required")
		}
		entries, err := st.Timeline(ctx, args[0])
		if err != nil {
			return reportFault(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tOCCURRED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", e.Status, e.OccurredAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var bookingsGeneratePDFCmd = &cobra.Command{
	Use:   "generate-pdf <booking-id>",
	Short: "Render the insertion-order document and advance the booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		b, err := st.GetBooking(ctx, args[0])
		if err != nil {
			return reportFault(err)
		}

		art, err := docgen.New(cfg.Docgen.OutputDir).Generate(b)
		if err != nil {
			return reportFault(err)
		}

		svc := intake.NewService(nil, nil, st, newMachine())
		if _, err := svc.SetStatus(ctx, b.ID, model.StatusPDFGenerated, "PDF generated successfully"); err != nil {
			return reportFault(err)
		}

		zap.L().Info("insertion order generated",
			zap.String("booking_id", b.ID),
			zap.String("file", art.File),
		)
		return printOut(art, bookingsOutput)
	},
}

var bookingsSendEmailCmd = &cobra.Command{
	Use:   "send-email <booking-id>",
	Short: "Send the booking summary email and advance the booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		b, err := st.GetBooking(ctx, args[0])
		if err != nil {
			return reportFault(err)
		}

		recipients, err := notify.ResolveRecipients(ctx, st, b.SubmittedBy)
		if err != nil {
			return reportFault(err)
		}

		msg, err := notify.BuildBookingEmail(b, recipients)
		if err != nil {
			return reportFault(err)
		}

		mailer := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Notify.Host,
			Port:     cfg.Notify.Port,
			Username: cfg.Notify.Username,
			Password: cfg.Notify.Password,
			From:     cfg.Notify.From,
		})
		if err := mailer.Send(ctx, msg); err != nil {
			return reportFault(err)
		}

		svc := intake.NewService(nil, nil, st, newMachine())
		if _, err := svc.SetStatus(ctx, b.ID, model.StatusSent, notify.SentNote(recipients)); err != nil {
			return reportFault(err)
		}

		fmt.Println("Email sent successfully")
		return nil
	},
}

var bookingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the analytics report as an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r, err := report.NewService(st).Build(ctx)
		if err != nil {
			return err
		}
		if err := report.ExportXLSX(r, bookingsExportPath); err != nil {
			return err
		}

		zap.L().Info("report exported", zap.String("file", bookingsExportPath))
		return nil
	},
}

// getBooking resolves the argument as a booking ID first, then as a
// campaign reference.
func getBooking(cmd *cobra.Command, st store.Store, arg string) (*model.Booking, error) {
	b, err := st.GetBooking(cmd.Context(), arg)
	if err == nil {
		return b, nil
	}
	return st.GetBookingByRef(cmd.Context(), arg)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func init() {
	bookingsListCmd.Flags().StringVar(&bookingsStatus, "status", "", "filter by status")
	bookingsListCmd.Flags().StringVar(&bookingsPriority, "priority", "", "filter by priority")
	bookingsListCmd.Flags().StringVar(&bookingsSubmittedBy, "submitted-by", "", "filter by submitter")
	bookingsListCmd.Flags().IntVar(&bookingsLimit, "limit", 0, "max rows (default 100)")
	bookingsListCmd.Flags().IntVar(&bookingsOffset, "offset", 0, "rows to skip")

	bookingsGetCmd.Flags().StringVarP(&bookingsOutput, "output", "o", "json", "output format: json|yaml")
	bookingsSetStatusCmd.Flags().StringVar(&bookingsNote, "note", "", "audit note (default standard wording)")
	bookingsExportCmd.Flags().StringVar(&bookingsExportPath, "out", "report.xlsx", "output workbook path")

	bookingsCmd.AddCommand(bookingsListCmd, bookingsGetCmd, bookingsSetStatusCmd,
		bookingsTimelineCmd, bookingsGeneratePDFCmd, bookingsSendEmailCmd, bookingsExportCmd)
	rootCmd.AddCommand(bookingsCmd)
}
