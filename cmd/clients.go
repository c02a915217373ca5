package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/config"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/filetags"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/records"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/setup"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/storage"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/tracker"
)

var errNoDropboxToken = errors.New("dropbox token missing: set " + config.EnvDropboxKey + " or run `tracker setup`")

// clients 是启动后共享的外部连接
type clients struct {
	store  *records.Store
	tagger *filetags.Client
	db     *storage.Database
}

// openClients 连接两个服务，任何失败对调用方都是致命的
func openClients(ctx context.Context, m *config.Manager, logger *slog.Logger) (*clients, error) {
	secrets, err := m.LoadSecrets()
	if err != nil {
		return nil, err
	}
	if secrets.DropboxToken == "" {
		return nil, errNoDropboxToken
	}

	creds, err := os.ReadFile(m.CredentialsPath())
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	sheet, err := records.OpenGoogleSheet(ctx, creds, secrets.SheetID)
	if err != nil {
		return nil, err
	}
	logger.Info("sheet opened", "worksheet", sheet.Title())

	cfg := m.GetConfig()
	tagger := filetags.New(secrets.DropboxToken, filetags.Options{
		Folder:              cfg.Dropbox.Folder,
		TemplateName:        cfg.Dropbox.TemplateName,
		TemplateDescription: cfg.Dropbox.TemplateDescription,
	}, logger)

	account, err := tagger.CurrentAccount()
	if err != nil {
		return nil, fmt.Errorf("dropbox authentication: %w", err)
	}
	logger.Info("dropbox connected", "account", account, "folder", tagger.Folder())

	// 历史记录不可用时不影响主流程
	db, err := storage.NewDatabase(m.DatabasePath())
	if err != nil {
		logger.Warn("save history disabled", "path", m.DatabasePath(), "error", err)
		db = nil
	}

	return &clients{
		store:  records.NewStore(sheet, logger),
		tagger: tagger,
		db:     db,
	}, nil
}

func (c *clients) controller(filePath string, m *config.Manager, dispatch func(func()), logger *slog.Logger) *tracker.Controller {
	opts := tracker.Options{
		FilePath:    filePath,
		FallbackDir: m.GetConfig().Dropbox.FallbackDir,
		Dispatch:    dispatch,
		Logger:      logger,
	}
	if c.db != nil {
		opts.History = c.db
	}
	return tracker.NewController(c.store, c.tagger, opts)
}

func (c *clients) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// openSheet 供设置向导保存前测试连接
func openSheet(logger *slog.Logger) setup.OpenFunc {
	return func(ctx context.Context, credentials []byte, sheetID string) (setup.Lister, error) {
		sheet, err := records.OpenGoogleSheet(ctx, credentials, sheetID)
		if err != nil {
			return nil, err
		}
		return records.NewStore(sheet, logger), nil
	}
}
