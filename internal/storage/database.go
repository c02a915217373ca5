package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(path string) (*Database, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) initTables() error {
	// 保存记录表
	_, err := d.db.Exec(`
        CREATE TABLE IF NOT EXISTS save_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            assignment TEXT NOT NULL,
            file_name TEXT NOT NULL DEFAULT '',
            remote_path TEXT NOT NULL DEFAULT '',
            progress TEXT NOT NULL DEFAULT '',
            is_new INTEGER NOT NULL DEFAULT 0,
            sheet_ok INTEGER NOT NULL DEFAULT 0,
            metadata_ok INTEGER NOT NULL DEFAULT 0,
            error TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_save_events_assignment
        ON save_events(assignment, created_at)
    `)
	return err
}

// RecordSave 写入一条保存记录
func (d *Database) RecordSave(event *models.SaveEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	result, err := d.db.Exec(`
        INSERT INTO save_events (assignment, file_name, remote_path, progress, is_new, sheet_ok, metadata_ok, error, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, event.Assignment, event.FileName, event.RemotePath, event.Progress,
		event.IsNew, event.SheetOK, event.MetadataOK, event.Error, event.CreatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = id
	return nil
}

// RecentSaves 按时间倒序返回
func (d *Database) RecentSaves(limit int) ([]*models.SaveEvent, error) {
	rows, err := d.db.Query(`
        SELECT id, assignment, file_name, remote_path, progress, is_new, sheet_ok, metadata_ok, error, created_at
        FROM save_events
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (d *Database) SavesForAssignment(assignment string) ([]*models.SaveEvent, error) {
	rows, err := d.db.Query(`
        SELECT id, assignment, file_name, remote_path, progress, is_new, sheet_ok, metadata_ok, error, created_at
        FROM save_events
        WHERE assignment = ?
        ORDER BY created_at DESC, id DESC
    `, assignment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*models.SaveEvent, error) {
	var events []*models.SaveEvent
	for rows.Next() {
		e := &models.SaveEvent{}
		var progress string
		if err := rows.Scan(
			&e.ID,
			&e.Assignment,
			&e.FileName,
			&e.RemotePath,
			&progress,
			&e.IsNew,
			&e.SheetOK,
			&e.MetadataOK,
			&e.Error,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Progress = models.Progress(progress)
		events = append(events, e)
	}
	return events, rows.Err()
}

// 统计相关方法
func (d *Database) GetHistoryStats(startDate, endDate time.Time) (*models.HistoryStats, error) {
	stats := &models.HistoryStats{}

	query := `
        SELECT
            COUNT(*) as total,
            COALESCE(SUM(CASE WHEN sheet_ok = 0 THEN 1 ELSE 0 END), 0) as sheet_failures,
            COALESCE(SUM(CASE WHEN metadata_ok = 0 THEN 1 ELSE 0 END), 0) as tag_failures,
            COALESCE(SUM(CASE WHEN is_new = 1 THEN 1 ELSE 0 END), 0) as new_assignments
        FROM save_events
        WHERE created_at BETWEEN ? AND ?
    `

	err := d.db.QueryRow(query, startDate, endDate).Scan(
		&stats.TotalSaves,
		&stats.SheetFailures,
		&stats.TagFailures,
		&stats.NewAssignments,
	)
	return stats, err
}
