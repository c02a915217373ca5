package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/config"
)

func newCheckCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Verify the configuration without opening a window",
		Long: "Authenticates against Google Sheets and Dropbox, lists the assignments " +
			"and, when a file is given, looks it up in the Dropbox folder.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), *configDir, file)
		},
	}
}

func runCheck(ctx context.Context, out io.Writer, configDir, file string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configManager, logger, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if !configManager.Configured() {
		return fmt.Errorf("%w: run `tracker setup` (config dir %s)", config.ErrNotConfigured, configManager.Dir())
	}

	c, err := openClients(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctrl := c.controller(file, configManager, nil, logger)
	ctrl.OnStatus(func(line string) {
		fmt.Fprintln(out, line)
	})

	names, err := c.store.ListNames(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sheet: %d assignments\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}

	fmt.Fprintf(out, "Dropbox folder: %s\n", c.tagger.Folder())
	if _, err := c.tagger.EnsureTemplate(); err != nil {
		fmt.Fprintf(out, "Metadata template: %v\n", err)
	} else {
		fmt.Fprintf(out, "Metadata template: %s\n", configManager.GetConfig().Dropbox.TemplateName)
	}

	if file != "" {
		if _, err := ctrl.ProcessFile(file); err != nil {
			return err
		}
	}
	return nil
}
