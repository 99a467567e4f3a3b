package model

import (
	"errors"
	"time"
)

type (
	UserID    int64
	TaskID    int64
	SubtaskID int64
)

// DisplayStyle selects how /show renders the task list.
type DisplayStyle bool

const (
	StyleTraditional DisplayStyle = true
	StyleKanban      DisplayStyle = false
)

func (s DisplayStyle) String() string {
	if s == StyleTraditional {
		return "traditional"
	}
	return "kanban"
}

type (
	User struct {
		ID    UserID
		Login string
		Style DisplayStyle
	}

	Task struct {
		ID       TaskID
		Owner    UserID
		Assignee UserID // 0 means unassigned
		Note     string
		Deadline *time.Time
		Reminder bool
		Done     bool
	}

	Subtask struct {
		ID     SubtaskID
		Parent TaskID
		Note   string
		Done   bool
	}
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("sub-task not found")

	ErrNoteTooLong       = errors.New("note is too long")
	ErrDuplicateNote     = errors.New("note is already used")
	ErrDeadlineNotFuture = errors.New("deadline is not in the future")
	ErrSelfAssignee      = errors.New("assignee equals the owner")
	ErrNoDeadline        = errors.New("task has no deadline")
)
