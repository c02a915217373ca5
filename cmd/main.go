package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/config"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/ui"
)

// Version 构建时通过 ldflags 设置: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

func newRootCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "tracker [file]",
		Short: "Track debate assignments in Google Sheets and Dropbox",
		Long: "Opens the assignment form. When a file is given, it is looked up in the " +
			"Dropbox folder and saved assignments are tagged on that file.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return runTracker(configDir, file)
		},
	}

	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/"+config.DirName+")")

	cmd.AddCommand(newSetupCmd(&configDir))
	cmd.AddCommand(newCheckCmd(&configDir))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tracker %s\n", Version)
		},
	}
}

// loadConfig 初始化配置管理器和日志
func loadConfig(configDir string) (*config.Manager, *slog.Logger, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(configManager.GetConfig().Log.Level),
	}))
	slog.SetDefault(logger)
	slog.Debug("configuration loaded", "dir", configManager.Dir())
	return configManager, logger, nil
}

func runTracker(configDir, file string) error {
	configManager, logger, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	// 创建应用
	myApp := app.New()

	if configManager.Configured() {
		if err := startMain(myApp, configManager, file, logger); err != nil {
			return err
		}
		myApp.Run()
		return nil
	}

	// 首次运行先走设置向导
	logger.Info("no configuration found, starting setup wizard", "dir", configManager.Dir())
	ui.ShowSetupWizard(myApp, configManager, openSheet(logger), func(saved bool) {
		if !saved {
			myApp.Quit()
			return
		}
		if err := startMain(myApp, configManager, file, logger); err != nil {
			logger.Error("startup failed", "error", err)
			ui.ShowFatal(myApp, err)
		}
	})
	myApp.Run()
	return nil
}

func startMain(myApp fyne.App, configManager *config.Manager, file string, logger *slog.Logger) error {
	c, err := openClients(context.Background(), configManager, logger)
	if err != nil {
		return err
	}

	ctrl := c.controller(file, configManager, fyne.Do, logger)

	// 创建主窗口
	mainWindow := ui.NewMainWindow(myApp, configManager, ctrl, c.db)

	cfg := configManager.GetConfig()
	mainWindow.SetSize(float32(cfg.App.WindowWidth), float32(cfg.App.WindowHeight))

	mainWindow.Show()
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
