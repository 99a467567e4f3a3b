package tasks

import (
	"context"
	"time"

	"github.com/kotche/taskbot/internal/model"
)

type (
	Service interface {
		EnsureUserExists(ctx context.Context, user model.User) error
		UserExists(ctx context.Context, userID model.UserID) (bool, error)
		Style(ctx context.Context, userID model.UserID) (model.DisplayStyle, error)
		ToggleStyle(ctx context.Context, userID model.UserID) (model.DisplayStyle, error)

		CreateTask(ctx context.Context, owner model.UserID, note string) error
		TaskByNote(ctx context.Context, owner model.UserID, note string) (*model.Task, error)
		VisibleTasks(ctx context.Context, userID model.UserID) ([]model.Task, error)
		TasksByDone(ctx context.Context, owner model.UserID, done bool) ([]model.Task, error)
		ReminderTasks(ctx context.Context) ([]model.Task, error)
		FinishTask(ctx context.Context, owner model.UserID, note string) error
		DeleteTask(ctx context.Context, owner model.UserID, note string) error
		ChangeNote(ctx context.Context, owner model.UserID, note, newNote string) error
		ChangeDeadline(ctx context.Context, owner model.UserID, note string, deadline time.Time) error
		ChangeAssignee(ctx context.Context, owner model.UserID, note string, assignee model.UserID) error
		ToggleReminder(ctx context.Context, owner model.UserID, note string) (bool, error)

		CreateSubtask(ctx context.Context, parent model.TaskID, note string) error
		Subtasks(ctx context.Context, parent model.TaskID) ([]model.Subtask, error)
		FinishSubtask(ctx context.Context, parent model.TaskID, note string) error
		DeleteSubtask(ctx context.Context, parent model.TaskID, note string) error
	}
)
