package models

import "time"

// SaveEvent 记录一次保存操作的结果
type SaveEvent struct {
	ID         int64
	Assignment string
	FileName   string
	RemotePath string
	Progress   Progress
	IsNew      bool
	SheetOK    bool
	MetadataOK bool
	Error      string
	CreatedAt  time.Time
}

type HistoryStats struct {
	TotalSaves     int
	SheetFailures  int
	TagFailures    int
	NewAssignments int
}
