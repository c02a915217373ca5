package main

import (
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/ui"
)

func newSetupCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Run the setup wizard",
		Long:  "Collects the service-account credentials, the Sheet ID and the Dropbox token and writes them to the configuration directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configManager, logger, err := loadConfig(*configDir)
			if err != nil {
				return err
			}

			myApp := app.New()
			ui.ShowSetupWizard(myApp, configManager, openSheet(logger), func(saved bool) {
				logger.Info("setup wizard closed", "saved", saved)
				if !saved {
					myApp.Quit()
				}
			})
			myApp.Run()
			return nil
		},
	}
}
