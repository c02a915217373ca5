package models

// 文件属性模板字段
const (
	TagAssignmentName = "assignment_name"
	TagDescription    = "description"
	TagDueDate        = "due_date"
	TagStatus         = "status"
	TagAssignee       = "assignee"
)

var TagFields = []string{
	TagAssignmentName,
	TagDescription,
	TagDueDate,
	TagStatus,
	TagAssignee,
}

type Tag struct {
	Key   string
	Value string
}

// Tags 返回写入文件属性组的五个字段，顺序与模板一致
func (a *Assignment) Tags() []Tag {
	return []Tag{
		{Key: TagAssignmentName, Value: a.Name},
		{Key: TagDescription, Value: a.Description},
		{Key: TagDueDate, Value: a.DueDate},
		{Key: TagStatus, Value: string(a.Progress)},
		{Key: TagAssignee, Value: a.Assignee},
	}
}
