package tasks

import (
	"context"
	"time"

	"github.com/kotche/taskbot/internal/model"
)

type (
	Repository interface {
		UserExists(ctx context.Context, userID model.UserID) (bool, error)
		CreateUser(ctx context.Context, user model.User) error
		GetUser(ctx context.Context, userID model.UserID) (*model.User, error)
		ToggleStyle(ctx context.Context, userID model.UserID) (model.DisplayStyle, error)

		CreateTask(ctx context.Context, owner model.UserID, note string) error
		GetTaskByNote(ctx context.Context, owner model.UserID, note string) (*model.Task, error)
		ListVisibleTasks(ctx context.Context, userID model.UserID) ([]model.Task, error)
		ListTasksByDone(ctx context.Context, owner model.UserID, done bool) ([]model.Task, error)
		ListReminderTasks(ctx context.Context) ([]model.Task, error)
		DeleteTask(ctx context.Context, owner model.UserID, note string) error
		FinishTask(ctx context.Context, owner model.UserID, note string) error
		UpdateTaskNote(ctx context.Context, owner model.UserID, note, newNote string) error
		UpdateTaskDeadline(ctx context.Context, owner model.UserID, note string, deadline time.Time) error
		UpdateTaskAssignee(ctx context.Context, owner model.UserID, note string, assignee model.UserID) error
		SetTaskReminder(ctx context.Context, owner model.UserID, note string, enabled bool) error

		CreateSubtask(ctx context.Context, parent model.TaskID, note string) error
		ListSubtasks(ctx context.Context, parent model.TaskID) ([]model.Subtask, error)
		SubtaskExists(ctx context.Context, parent model.TaskID, note string) (bool, error)
		FinishSubtask(ctx context.Context, parent model.TaskID, note string) error
		DeleteSubtask(ctx context.Context, parent model.TaskID, note string) error
	}
)
