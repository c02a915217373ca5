package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/tracker"
)

// 单选按钮文字
const (
	labelNotStarted = "Not Started"
	labelWIP        = "In Progress"
	labelDone       = "Completed"
)

var progressLabels = []string{labelNotStarted, labelWIP, labelDone}

func progressLabel(p models.Progress) string {
	switch p {
	case models.ProgressNotStarted:
		return labelNotStarted
	case models.ProgressWIP:
		return labelWIP
	case models.ProgressDone:
		return labelDone
	}
	return ""
}

func progressFromLabel(label string) models.Progress {
	switch label {
	case labelNotStarted:
		return models.ProgressNotStarted
	case labelWIP:
		return models.ProgressWIP
	case labelDone:
		return models.ProgressDone
	}
	return ""
}

// AssignmentForm 选择并编辑单个作业
type AssignmentForm struct {
	ctrl   *tracker.Controller
	window fyne.Window
	onSave func()

	assignmentSelect *widget.SelectEntry
	loadBtn          *widget.Button
	clearBtn         *widget.Button
	refreshBtn       *widget.Button
	loading          *widget.ProgressBarInfinite

	details     *fyne.Container
	detailTitle *widget.Label
	description *widget.Entry
	dueDate     *widget.Entry
	progress    *widget.RadioGroup
	assignee    *widget.Entry
	saveBtn     *widget.Button

	statusLabel  *widget.Label
	statusScroll *container.Scroll

	container *fyne.Container
}

func NewAssignmentForm(ctrl *tracker.Controller, window fyne.Window) *AssignmentForm {
	f := &AssignmentForm{
		ctrl:   ctrl,
		window: window,
	}
	f.setup()

	ctrl.OnStatus(f.appendStatus)
	ctrl.OnStateChange(f.onStateChange)
	return f
}

// OnSave 每次保存后回调
func (f *AssignmentForm) OnSave(callback func()) {
	f.onSave = callback
}

func (f *AssignmentForm) setup() {
	// 标题
	title := widget.NewLabelWithStyle("Assignment Tracker", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	header := container.NewHBox(title, layout.NewSpacer())
	if name := f.ctrl.FileName(); name != "" {
		header.Add(widget.NewLabel("File: " + name))
	}

	// 作业下拉框与按钮
	f.assignmentSelect = widget.NewSelectEntry(nil)
	f.assignmentSelect.SetPlaceHolder("Search or select an assignment...")
	f.assignmentSelect.OnChanged = f.onAssignmentChanged

	f.loadBtn = widget.NewButtonWithIcon("Load Assignment", theme.SearchIcon(), f.loadAssignmentDetails)
	f.loadBtn.Disable()

	f.clearBtn = widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), f.clearAssignment)
	f.clearBtn.Importance = widget.DangerImportance

	f.refreshBtn = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		f.ctrl.LoadAssignments(context.Background(), f.onAssignmentsLoaded)
	})

	selection := container.NewBorder(
		nil, nil, nil,
		container.NewHBox(f.loadBtn, f.clearBtn, f.refreshBtn),
		f.assignmentSelect,
	)

	f.loading = widget.NewProgressBarInfinite()
	f.loading.Hide()

	f.setupDetails()

	// 状态区
	f.statusLabel = widget.NewLabel("")
	f.statusLabel.Wrapping = fyne.TextWrapWord
	f.statusScroll = container.NewVScroll(f.statusLabel)
	f.statusScroll.SetMinSize(fyne.NewSize(0, 60))

	f.container = container.NewBorder(
		container.NewVBox(
			header,
			widget.NewLabelWithStyle("Select Assignment:", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			selection,
			f.loading,
		),
		f.statusScroll,
		nil, nil,
		container.NewVScroll(f.details),
	)
}

func (f *AssignmentForm) setupDetails() {
	f.detailTitle = widget.NewLabelWithStyle("Assignment Details", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	f.description = widget.NewMultiLineEntry()
	f.description.SetPlaceHolder("Enter assignment description...")
	f.description.SetMinRowsVisible(3)

	f.dueDate = widget.NewEntry()
	f.dueDate.SetPlaceHolder("YYYY-MM-DD or any date format...")

	f.progress = widget.NewRadioGroup(progressLabels, nil)
	f.progress.Horizontal = true

	f.assignee = widget.NewEntry()
	f.assignee.SetPlaceHolder("Enter assignee name...")

	f.saveBtn = widget.NewButtonWithIcon("Save Assignment", theme.DocumentSaveIcon(), f.saveAssignment)
	f.saveBtn.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Description", f.description),
		widget.NewFormItem("Due Date", f.dueDate),
		widget.NewFormItem("Progress", f.progress),
		widget.NewFormItem("Assignee", f.assignee),
	)

	f.details = container.NewVBox(f.detailTitle, form, f.saveBtn)
	f.details.Hide()
}

// Start 在后台加载作业列表，若带文件参数则检查该文件
func (f *AssignmentForm) Start() {
	if p := f.ctrl.FilePath(); p != "" {
		f.ctrl.ProcessFile(p)
	}
	f.ctrl.LoadAssignments(context.Background(), f.onAssignmentsLoaded)
}

func (f *AssignmentForm) onAssignmentsLoaded(err error) {
	if err != nil {
		dialog.ShowError(fmt.Errorf("Failed to load assignments:\n%v", err), f.window)
		return
	}
	f.assignmentSelect.SetOptions(f.ctrl.Names())
	f.onAssignmentChanged(f.assignmentSelect.Text)
}

func (f *AssignmentForm) onStateChange(state tracker.State) {
	switch state {
	case tracker.StateLoading:
		f.loading.Show()
		f.loading.Start()
		f.refreshBtn.Disable()
	case tracker.StateIdle, tracker.StateReady:
		f.loading.Stop()
		f.loading.Hide()
		f.refreshBtn.Enable()
		f.details.Hide()
		f.statusScroll.SetMinSize(fyne.NewSize(0, 60))
	case tracker.StateEditing:
		f.loading.Stop()
		f.loading.Hide()
		f.refreshBtn.Enable()
		f.details.Show()
		f.statusScroll.SetMinSize(fyne.NewSize(0, 120))
	}
	f.onAssignmentChanged(f.assignmentSelect.Text)
}

func (f *AssignmentForm) onAssignmentChanged(text string) {
	state := f.ctrl.State()
	if strings.TrimSpace(text) != "" && (state == tracker.StateReady || state == tracker.StateEditing) {
		f.loadBtn.Enable()
	} else {
		f.loadBtn.Disable()
	}
}

func (f *AssignmentForm) loadAssignmentDetails() {
	name := strings.TrimSpace(f.assignmentSelect.Text)
	if name == "" {
		return
	}

	a, err := f.ctrl.Select(context.Background(), name)
	if err != nil {
		dialog.ShowError(fmt.Errorf("Failed to load assignment details:\n%v", err), f.window)
		return
	}
	f.populate(a)
	f.window.Resize(fyne.NewSize(700, 650))
}

func (f *AssignmentForm) populate(a models.Assignment) {
	if f.ctrl.IsNew() {
		f.detailTitle.SetText("New Assignment: " + a.Name)
	} else {
		f.detailTitle.SetText("Assignment Details: " + a.Name)
	}
	f.description.SetText(a.Description)
	f.dueDate.SetText(a.DueDate)
	f.assignee.SetText(a.Assignee)
	f.progress.SetSelected(progressLabel(a.Progress))
}

// values 读取表单当前内容
func (f *AssignmentForm) values() models.Assignment {
	return models.Assignment{
		Name:        f.ctrl.Current(),
		Description: strings.TrimSpace(f.description.Text),
		DueDate:     strings.TrimSpace(f.dueDate.Text),
		Progress:    progressFromLabel(f.progress.Selected),
		Assignee:    strings.TrimSpace(f.assignee.Text),
	}
}

func (f *AssignmentForm) clearAssignment() {
	f.assignmentSelect.SetText("")
	f.ctrl.Clear()
	f.window.Resize(fyne.NewSize(600, 280))
}

func (f *AssignmentForm) saveAssignment() {
	_, err := f.ctrl.Save(context.Background(), f.values())
	switch {
	case errors.Is(err, tracker.ErrNoAssignment):
		dialog.ShowInformation("Warning", "No assignment selected", f.window)
		return
	case errors.Is(err, tracker.ErrNoFile):
		dialog.ShowInformation("Warning", "No file path specified", f.window)
		return
	case err != nil:
		dialog.ShowError(fmt.Errorf("Failed to save assignment: %v", err), f.window)
	default:
		dialog.ShowInformation("Success", fmt.Sprintf("Assignment '%s' saved successfully!", f.ctrl.Current()), f.window)
	}

	if f.onSave != nil {
		f.onSave()
	}
}

func (f *AssignmentForm) appendStatus(line string) {
	if f.statusLabel.Text == "" {
		f.statusLabel.SetText(line)
	} else {
		f.statusLabel.SetText(f.statusLabel.Text + "\n" + line)
	}
	f.statusScroll.ScrollToBottom()
}

func (f *AssignmentForm) Container() *fyne.Container {
	return f.container
}
