// Package tracker holds the assignment form workflow independent of any
// widget toolkit: loading the assignment list, selecting an assignment and
// saving it to the sheet and to the file's metadata.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"
)

var (
	ErrNoAssignment = errors.New("no assignment selected")
	ErrNoFile       = errors.New("no file path specified")
)

const DefaultFallbackDir = "/path/to"

type RecordStore interface {
	ListNames(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (models.Assignment, error)
	Upsert(ctx context.Context, a models.Assignment) error
}

type FileTagger interface {
	FindFilePath(name string) (string, error)
	AddMetadata(name string, a models.Assignment) error
	UpdateMetadata(name, key, value string) error
}

type History interface {
	RecordSave(event *models.SaveEvent) error
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEditing:
		return "editing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	// FilePath is the local file the tracker was opened with, if any.
	FilePath string
	// FallbackDir prefixes the file name when the file is not in Dropbox.
	FallbackDir string
	// Dispatch runs f on the goroutine that owns the interface.
	Dispatch func(f func())
	History  History
	Logger   *slog.Logger
}

type Controller struct {
	records  RecordStore
	tags     FileTagger
	history  History
	dispatch func(func())
	logger   *slog.Logger

	filePath    string
	fallbackDir string

	state    State
	names    []string
	current  string
	isNew    bool
	needsAdd bool // no property group on the file yet
	status   []string

	onStatus func(line string)
	onState  func(state State)
}

func NewController(records RecordStore, tags FileTagger, opts Options) *Controller {
	c := &Controller{
		records:     records,
		tags:        tags,
		history:     opts.History,
		dispatch:    opts.Dispatch,
		logger:      opts.Logger,
		filePath:    opts.FilePath,
		fallbackDir: opts.FallbackDir,
	}
	if c.dispatch == nil {
		c.dispatch = func(f func()) { f() }
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.fallbackDir == "" {
		c.fallbackDir = DefaultFallbackDir
	}
	return c
}

// OnStatus registers a callback for every appended status line.
func (c *Controller) OnStatus(f func(line string)) {
	c.onStatus = f
}

// OnStateChange registers a callback for state transitions.
func (c *Controller) OnStateChange(f func(state State)) {
	c.onState = f
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Controller) Current() string {
	return c.current
}

// IsNew reports whether the selected assignment has no sheet row yet.
func (c *Controller) IsNew() bool {
	return c.isNew
}

func (c *Controller) FilePath() string {
	return c.filePath
}

// FileName is the base name of FilePath, or "" when no file was given.
func (c *Controller) FileName() string {
	if c.filePath == "" {
		return ""
	}
	return baseName(c.filePath)
}

func (c *Controller) Status() []string {
	return append([]string(nil), c.status...)
}

func (c *Controller) appendStatus(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	c.status = append(c.status, line)
	c.logger.Info(line)
	if c.onStatus != nil {
		c.onStatus(line)
	}
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// LoadAssignments fetches the assignment list on a separate goroutine. The
// result is applied, and done called, through the dispatch function.
func (c *Controller) LoadAssignments(ctx context.Context, done func(err error)) {
	c.setState(StateLoading)
	c.appendStatus("Loading assignments from spreadsheet...")

	go func() {
		names, err := c.records.ListNames(ctx)
		c.dispatch(func() {
			if err != nil {
				c.appendStatus("Error loading assignments: %v", err)
				if c.current != "" {
					c.setState(StateEditing)
				} else if c.names != nil {
					c.setState(StateReady)
				} else {
					c.setState(StateIdle)
				}
			} else {
				if names == nil {
					names = []string{}
				}
				c.names = names
				c.appendStatus("Loaded %d assignments", len(names))
				if c.current != "" {
					c.setState(StateEditing)
				} else {
					c.setState(StateReady)
				}
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

// Select loads the named assignment into the form. Unknown names produce an
// empty form and are saved as new assignments.
func (c *Controller) Select(ctx context.Context, name string) (models.Assignment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Assignment{}, ErrNoAssignment
	}

	c.appendStatus("Loading details for: %s", name)

	a, err := c.records.Get(ctx, name)
	if err != nil && !isNotFound(err) {
		c.appendStatus("Error loading assignment details: %v", err)
		return models.Assignment{}, err
	}
	a.Name = name
	a.Progress = models.NormalizeProgress(string(a.Progress))

	// a fresh name list decides between update and add
	names, err := c.records.ListNames(ctx)
	if err != nil {
		c.appendStatus("Error loading assignment details: %v", err)
		return models.Assignment{}, err
	}
	c.names = names
	c.isNew = !contains(names, name)
	c.needsAdd = c.isNew
	c.current = name
	c.setState(StateEditing)

	if c.isNew {
		c.appendStatus("New assignment: %s", name)
	} else {
		c.appendStatus("Loaded details for %s", name)
	}
	return a, nil
}

// Clear drops the current selection.
func (c *Controller) Clear() {
	c.current = ""
	c.isNew = false
	c.needsAdd = false
	if c.names != nil {
		c.setState(StateReady)
	} else {
		c.setState(StateIdle)
	}
	c.appendStatus("Cleared assignment selection")
}

type SaveResult struct {
	Assignment   models.Assignment
	FileName     string
	UsedFallback bool
	IsNew        bool
	SheetErr     error
	MetadataErr  error
}

// Save writes the form to the sheet and then to the file's metadata. The two
// writes are independent: a failure in one does not undo the other. A
// selection stays saveable while the name list is reloading.
func (c *Controller) Save(ctx context.Context, form models.Assignment) (*SaveResult, error) {
	if c.current == "" {
		return nil, ErrNoAssignment
	}
	if c.filePath == "" {
		return nil, ErrNoFile
	}

	fileName := baseName(c.filePath)
	a := models.Assignment{
		Name:        c.current,
		Description: strings.TrimSpace(form.Description),
		DueDate:     strings.TrimSpace(form.DueDate),
		Progress:    form.Progress,
		Assignee:    strings.TrimSpace(form.Assignee),
	}
	res := &SaveResult{FileName: fileName, IsNew: c.isNew}

	remote, err := c.tags.FindFilePath(fileName)
	if err != nil {
		if !isNotFound(err) {
			c.appendStatus("Error checking Dropbox: %v", err)
		}
		c.appendStatus("File %s not found in Dropbox", fileName)
		remote = path.Join(c.fallbackDir, fileName)
		res.UsedFallback = true
	}
	a.FilePath = remote
	res.Assignment = a

	c.appendStatus("Saving assignment: %s", a.Name)

	if err := c.records.Upsert(ctx, a); err != nil {
		res.SheetErr = fmt.Errorf("spreadsheet: %w", err)
		c.appendStatus("Error updating record for %s: %v", a.Name, err)
	} else {
		// the row exists now, later upserts update it
		c.isNew = false
		if !contains(c.names, a.Name) {
			c.names = append(c.names, a.Name)
		}
	}

	if c.needsAdd {
		if err := c.tags.AddMetadata(fileName, a); err != nil {
			res.MetadataErr = fmt.Errorf("metadata: %w", err)
			c.appendStatus("Error adding metadata: %v", err)
		} else {
			c.needsAdd = false
			c.appendStatus("Added metadata for %s", fileName)
		}
	} else {
		var errs []error
		for _, tag := range a.Tags() {
			if err := c.tags.UpdateMetadata(fileName, tag.Key, tag.Value); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", tag.Key, err))
			}
		}
		if len(errs) > 0 {
			res.MetadataErr = fmt.Errorf("metadata: %w", errors.Join(errs...))
			c.appendStatus("Error updating metadata: %v", res.MetadataErr)
		} else {
			c.appendStatus("Updated metadata for %s", fileName)
		}
	}

	if res.SheetErr == nil && res.MetadataErr == nil {
		c.appendStatus("Successfully saved assignment: %s", a.Name)
	}

	c.recordHistory(res)
	return res, errors.Join(res.SheetErr, res.MetadataErr)
}

func (c *Controller) recordHistory(res *SaveResult) {
	if c.history == nil {
		return
	}
	event := &models.SaveEvent{
		Assignment: res.Assignment.Name,
		FileName:   res.FileName,
		RemotePath: res.Assignment.FilePath,
		Progress:   res.Assignment.Progress,
		IsNew:      res.IsNew,
		SheetOK:    res.SheetErr == nil,
		MetadataOK: res.MetadataErr == nil,
	}
	if err := errors.Join(res.SheetErr, res.MetadataErr); err != nil {
		event.Error = err.Error()
	}
	if err := c.history.RecordSave(event); err != nil {
		c.logger.Warn("record save history failed", "assignment", event.Assignment, "error", err)
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
