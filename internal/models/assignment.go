package models

import (
	"strings"
)

type Progress string

const (
	ProgressNotStarted Progress = "Not Started"
	ProgressWIP        Progress = "WIP"
	ProgressDone       Progress = "Done"
)

// 表头列名
const (
	ColumnAssignment  = "Assignment"
	ColumnDescription = "Description"
	ColumnDueDate     = "Due Date"
	ColumnProgress    = "Progress"
	ColumnAssignee    = "Assignee Name"
)

// 表单上可编辑的四个字段，按 B..E 列顺序
var EditableColumns = []string{
	ColumnDescription,
	ColumnDueDate,
	ColumnProgress,
	ColumnAssignee,
}

type Assignment struct {
	Name        string
	Description string
	DueDate     string
	Progress    Progress
	Assignee    string
	FilePath    string
}

// Get 按表头列名取字段
func (a *Assignment) Get(column string) string {
	switch column {
	case ColumnAssignment:
		return a.Name
	case ColumnDescription:
		return a.Description
	case ColumnDueDate:
		return a.DueDate
	case ColumnProgress:
		return string(a.Progress)
	case ColumnAssignee:
		return a.Assignee
	}
	return ""
}

// Set 按表头列名写字段，未知列忽略
func (a *Assignment) Set(column, value string) {
	switch column {
	case ColumnAssignment:
		a.Name = value
	case ColumnDescription:
		a.Description = value
	case ColumnDueDate:
		a.DueDate = value
	case ColumnProgress:
		a.Progress = Progress(value)
	case ColumnAssignee:
		a.Assignee = value
	}
}

// NormalizeProgress 把表格里的各种写法归一为三种进度，未知值返回空
func NormalizeProgress(raw string) Progress {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "not started", "not_started", "":
		return ProgressNotStarted
	case "wip", "work in progress", "in progress":
		return ProgressWIP
	case "done", "completed", "finished":
		return ProgressDone
	}
	return ""
}
