package main

import (
	"github.com/spf13/cobra"

	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/model"
	"github.com/mediaops/intake-cli/internal/notify"
)

var (
	settingsOwner      string
	settingsRecipients []string
	settingsOutput     string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage notification settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show an owner's notification recipients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s, err := st.GetSettings(ctx, settingsOwner)
		if err != nil {
			if fault.IsKind(err, fault.KindNotFound) {
				// No stored settings: show the defaults that would apply.
				return printOut(model.Settings{
					Owner:           settingsOwner,
					EmailRecipients: notify.DefaultRecipients,
				}, settingsOutput)
			}
			return reportFault(err)
		}
		return printOut(s, settingsOutput)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace an owner's notification recipients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := notify.ValidateRecipients(settingsRecipients); err != nil {
			return reportFault(err)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.PutSettings(ctx, model.Settings{
			Owner:           settingsOwner,
			EmailRecipients: settingsRecipients,
		}); err != nil {
			return reportFault(err)
		}

		s, err := st.GetSettings(ctx, settingsOwner)
		if err != nil {
			return reportFault(err)
		}
		return printOut(s, settingsOutput)
	},
}

func init() {
	settingsCmd.PersistentFlags().StringVar(&settingsOwner, "owner", "", "settings owner (required)")
	settingsCmd.PersistentFlags().StringVarP(&settingsOutput, "output", "o", "json", "output format: json|yaml")
	_ = settingsCmd.MarkPersistentFlagRequired("owner")

	settingsSetCmd.Flags().StringSliceVar(&settingsRecipients, "recipients", nil, "email recipients (required)")
	_ = settingsSetCmd.MarkFlagRequired("recipients")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
