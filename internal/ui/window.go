package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/config"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/storage"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/tracker"
)

type MainWindow struct {
	window        fyne.Window
	form          *AssignmentForm
	history       *HistoryView
	db            *storage.Database
	configManager *config.Manager
}

func NewMainWindow(app fyne.App, configManager *config.Manager, ctrl *tracker.Controller, db *storage.Database) *MainWindow {
	w := &MainWindow{
		window:        app.NewWindow(configManager.GetConfig().App.Name),
		configManager: configManager,
		db:            db,
	}
	w.form = NewAssignmentForm(ctrl, w.window)
	w.history = NewHistoryView(db)
	w.setup()
	return w
}

func (w *MainWindow) SetSize(width, height float32) {
	w.window.Resize(fyne.NewSize(width, height))
}

func (w *MainWindow) setup() {
	w.form.OnSave(w.history.Refresh)

	tabs := container.NewAppTabs(
		container.NewTabItem("Assignment", w.form.Container()),
		container.NewTabItem("History", w.history.Container()),
	)

	w.window.SetContent(tabs)

	// 关闭时记住窗口大小
	w.window.SetOnClosed(func() {
		size := w.window.Canvas().Size()
		if err := w.configManager.UpdateWindowSize(int(size.Width), int(size.Height)); err != nil {
			slog.Warn("save window size failed", "error", err)
		}
		if w.db != nil {
			w.db.Close()
		}
	})
}

// Show 显示窗口并开始加载作业，事件循环由调用方运行
func (w *MainWindow) Show() {
	w.window.Show()
	w.form.Start()
}

// ShowFatal 单独窗口显示启动错误，关闭即退出
func ShowFatal(app fyne.App, err error) {
	w := app.NewWindow("Assignment Tracker")
	msg := widget.NewLabel(fmt.Sprintf("Failed to start:\n%v", err))
	msg.Wrapping = fyne.TextWrapWord
	w.SetContent(container.NewBorder(nil,
		container.NewHBox(layout.NewSpacer(), widget.NewButton("Quit", app.Quit)),
		nil, nil, msg))
	w.SetOnClosed(app.Quit)
	w.Resize(fyne.NewSize(480, 200))
	w.Show()
}
