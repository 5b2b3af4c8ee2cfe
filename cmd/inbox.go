package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediaops/intake-cli/internal/intake"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/internal/store"
)

var (
	inboxSubmittedBy string
	inboxLimit       int
	inboxOffset      int
	inboxStatus      string
	inboxOutput      string
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Work the sales-rep review queue",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review-queue items, newest first",
	Long:  "Without --submitted-by the full queue is shown (the sales view); with it, only that submitter's bookings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		items, err := st.ListInbox(ctx, store.InboxFilter{
			SubmittedBy: inboxSubmittedBy,
			Limit:       inboxLimit,
			Offset:      inboxOffset,
		})
		if err != nil {
			return reportFault(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBOOKING\tCAMPAIGN\tCLIENT\tNET\tPRIORITY\tREP STATUS")
		for _, item := range items {
			net := ""
			if item.NetAmount != nil {
				net = fmt.Sprintf("%.2f", *item.NetAmount)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				item.ID,
				item.BookingID,
				deref(item.CampaignName),
				deref(item.ClientName),
				net,
				item.Priority,
				item.RepStatus,
			)
		}
		return w.Flush()
	},
}

var inboxReviewCmd = &cobra.Command{
	Use:   "review <inbox-id>",
	Short: "Apply a sales-rep decision to a queue item",
	Long:  "Confirmed and rejected decisions also force the underlying booking status; pending and reviewed only move the queue item.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := intake.NewService(nil, nil, st, newMachine())
		item, err := svc.Review(ctx, args[0], model.RepStatus(inboxStatus))
		if err != nil {
			return reportFault(err)
		}
		return printOut(item, inboxOutput)
	},
}

func init() {
	inboxListCmd.Flags().StringVar(&inboxSubmittedBy, "submitted-by", "", "narrow to one submitter's bookings")
	inboxListCmd.Flags().IntVar(&inboxLimit, "limit", 0, "max rows (default 100)")
	inboxListCmd.Flags().IntVar(&inboxOffset, "offset", 0, "rows to skip")

	inboxReviewCmd.Flags().StringVar(&inboxStatus, "status", "", "rep decision: pending|reviewed|confirmed|rejected (required)")
	inboxReviewCmd.Flags().StringVarP(&inboxOutput, "output", "o", "json", "output format: json|yaml")
	_ = inboxReviewCmd.MarkFlagRequired("status")

	inboxCmd.AddCommand(inboxListCmd, inboxReviewCmd)
	rootCmd.AddCommand(inboxCmd)
}
