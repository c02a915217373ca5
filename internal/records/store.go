// Package records reads and writes assignment rows in the first worksheet of
// a spreadsheet. Every query re-reads the whole worksheet; nothing is cached.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"
)

var (
	// ErrNotFound means the assignment or the requested column is absent.
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguous means more than one row carries the same assignment name.
	ErrAmbiguous = errors.New("assignment name matches more than one row")
	// ErrMissingColumn means the header row lacks the Assignment column.
	ErrMissingColumn = errors.New("worksheet has no Assignment column")
)

// headerRows is the offset between a data row index and its sheet row
// number: one header row plus one-based addressing.
const headerRows = 2

// Table is the worksheet access the store needs.
type Table interface {
	// Rows returns every row of the worksheet, header first.
	Rows(ctx context.Context) ([][]string, error)
	// UpdateRow overwrites columns B..F of the given one-based sheet row.
	UpdateRow(ctx context.Context, row int, values []string) error
	// AppendRow adds a row after the last non-empty one, starting at column A.
	AppendRow(ctx context.Context, values []string) error
}

type Store struct {
	table  Table
	logger *slog.Logger
}

func NewStore(table Table, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{table: table, logger: logger}
}

// ListNames returns the non-blank assignment names in row order.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap.rows))
	for i := range snap.rows {
		if name := snap.cell(i, snap.nameCol); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Field returns one column of the first row named name.
func (s *Store) Field(ctx context.Context, name, column string) (string, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	idx, err := snap.first(name)
	if err != nil {
		s.logger.Warn("field lookup failed", "assignment", name, "column", column, "error", err)
		return "", err
	}
	s.warnDuplicates(snap, name)

	col, ok := snap.header[column]
	if !ok {
		return "", fmt.Errorf("%w: column %q", ErrNotFound, column)
	}
	return snap.cell(idx, col), nil
}

// Get reads all tracked columns of one assignment with a single fetch.
// Columns missing from the header come back empty.
func (s *Store) Get(ctx context.Context, name string) (models.Assignment, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return models.Assignment{}, err
	}

	idx, err := snap.first(name)
	if err != nil {
		return models.Assignment{}, err
	}
	s.warnDuplicates(snap, name)

	return snap.assignment(idx), nil
}

// Upsert writes description, due date, progress, assignee and file path for
// the named assignment. Blank fields keep the value already in the sheet. An
// unknown name is appended as a new row; a duplicated name is refused.
func (s *Store) Upsert(ctx context.Context, a models.Assignment) error {
	snap, err := s.load(ctx)
	if err != nil {
		return err
	}

	matches := snap.find(a.Name)
	switch len(matches) {
	case 0:
		row := []string{a.Name, a.Description, a.DueDate, string(a.Progress), a.Assignee, a.FilePath}
		if err := s.table.AppendRow(ctx, row); err != nil {
			s.logger.Error("append record failed", "assignment", a.Name, "error", err)
			return fmt.Errorf("append record %q: %w", a.Name, err)
		}
		s.logger.Info("record appended", "assignment", a.Name)
		return nil
	case 1:
	default:
		s.logger.Warn("refusing ambiguous update", "assignment", a.Name, "rows", len(matches))
		return fmt.Errorf("update %q: %w", a.Name, ErrAmbiguous)
	}

	idx := matches[0]
	current := snap.assignment(idx)
	values := []string{
		keep(a.Description, current.Description),
		keep(a.DueDate, current.DueDate),
		keep(string(a.Progress), string(current.Progress)),
		keep(a.Assignee, current.Assignee),
		a.FilePath,
	}

	if err := s.table.UpdateRow(ctx, idx+headerRows, values); err != nil {
		s.logger.Error("update record failed", "assignment", a.Name, "error", err)
		return fmt.Errorf("update record %q: %w", a.Name, err)
	}
	s.logger.Info("record updated", "assignment", a.Name, "row", idx+headerRows)
	return nil
}

func (s *Store) load(ctx context.Context) (*snapshot, error) {
	rows, err := s.table.Rows(ctx)
	if err != nil {
		s.logger.Error("fetch records failed", "error", err)
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return newSnapshot(rows)
}

func (s *Store) warnDuplicates(snap *snapshot, name string) {
	if n := len(snap.find(name)); n > 1 {
		s.logger.Warn("duplicate assignment name, using first row", "assignment", name, "rows", n)
	}
}

func keep(value, current string) string {
	if strings.TrimSpace(value) == "" {
		return current
	}
	return value
}

// snapshot is one full read of the worksheet.
type snapshot struct {
	header  map[string]int
	rows    [][]string
	nameCol int
}

func newSnapshot(rows [][]string) (*snapshot, error) {
	if len(rows) == 0 {
		return nil, ErrMissingColumn
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, dup := header[h]; !dup && h != "" {
			header[h] = i
		}
	}

	nameCol, ok := header[models.ColumnAssignment]
	if !ok {
		return nil, ErrMissingColumn
	}
	return &snapshot{header: header, rows: rows[1:], nameCol: nameCol}, nil
}

func (s *snapshot) cell(row, col int) string {
	if col < 0 || col >= len(s.rows[row]) {
		return ""
	}
	return s.rows[row][col]
}

func (s *snapshot) find(name string) []int {
	var matches []int
	for i := range s.rows {
		if s.cell(i, s.nameCol) == name {
			matches = append(matches, i)
		}
	}
	return matches
}

func (s *snapshot) first(name string) (int, error) {
	matches := s.find(name)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return matches[0], nil
}

func (s *snapshot) assignment(idx int) models.Assignment {
	a := models.Assignment{Name: s.cell(idx, s.nameCol)}
	for _, column := range models.EditableColumns {
		if col, ok := s.header[column]; ok {
			a.Set(column, s.cell(idx, col))
		}
	}
	return a
}
