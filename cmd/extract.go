package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediaops/intake-cli/internal/model"
)

var (
	extractText        string
	extractFile        string
	extractURL         string
	extractSubmittedBy string
	extractOutput      string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the intake pipeline on one booking document",
	Long:  "Extracts a structured booking record from inline text, a local file, or a remote URL, validates it, and stores the booking.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("intake"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		svc := newIntakeService(st)

		var booking *model.Booking
		switch {
		case extractText != "":
			booking, err = svc.SubmitText(ctx, extractSubmittedBy, extractText)
		case extractFile != "":
			data, readErr := os.ReadFile(extractFile)
			if readErr != nil {
				return eris.Wrap(readErr, "read input file")
			}
			booking, err = svc.SubmitUpload(ctx, extractSubmittedBy, data)
		case extractURL != "":
			booking, err = svc.SubmitURL(ctx, extractSubmittedBy, extractURL)
		default:
			return eris.New("one of --text, --file, or --url is required")
		}
		if err != nil {
			return reportFault(err)
		}

		zap.L().Info("booking created",
			zap.String("booking_id", booking.ID),
			zap.String("priority", string(booking.Priority)),
		)
		return printOut(booking, extractOutput)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractText, "text", "", "inline booking text")
	extractCmd.Flags().StringVar(&extractFile, "file", "", "path to a booking document (PDF or text)")
	extractCmd.Flags().StringVar(&extractURL, "url", "", "URL of a booking document")
	extractCmd.Flags().StringVar(&extractSubmittedBy, "submitted-by", "", "submitter identity (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "json", "output format: json|yaml")
	_ = extractCmd.MarkFlagRequired("submitted-by")
	rootCmd.AddCommand(extractCmd)
}
