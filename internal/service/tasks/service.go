package tasks

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kotche/taskbot/internal/model"
	"github.com/kotche/taskbot/internal/repository/tasks"
)

const (
	maxTaskNoteLen    = 100
	maxSubtaskNoteLen = 50
)

type DefaultService struct {
	repo tasks.Repository
	now  func() time.Time
}

func NewDefaultService(repo tasks.Repository) *DefaultService {
	return &DefaultService{repo: repo, now: time.Now}
}

func (d *DefaultService) EnsureUserExists(ctx context.Context, user model.User) error {
	exists, err := d.repo.UserExists(ctx, user.ID)
	if err != nil {
		return err
	}

	if !exists {
		err = d.repo.CreateUser(ctx, model.User{
			ID:    user.ID,
			Login: user.Login,
			Style: model.StyleTraditional,
		})

		if err != nil {
			return err
		}
	}

	return nil
}

func (d *DefaultService) UserExists(ctx context.Context, userID model.UserID) (bool, error) {
	return d.repo.UserExists(ctx, userID)
}

func (d *DefaultService) Style(ctx context.Context, userID model.UserID) (model.DisplayStyle, error) {
	user, err := d.repo.GetUser(ctx, userID)
	if err != nil {
		return model.StyleTraditional, err
	}
	return user.Style, nil
}

func (d *DefaultService) ToggleStyle(ctx context.Context, userID model.UserID) (model.DisplayStyle, error) {
	return d.repo.ToggleStyle(ctx, userID)
}

// CreateTask checks the note length and the per-owner uniqueness before inserting.
func (d *DefaultService) CreateTask(ctx context.Context, owner model.UserID, note string) error {
	if note == "" || utf8.RuneCountInString(note) > maxTaskNoteLen {
		return model.ErrNoteTooLong
	}

	if err := d.checkNoteFree(ctx, owner, note); err != nil {
		return err
	}

	return d.repo.CreateTask(ctx, owner, note)
}

func (d *DefaultService) TaskByNote(ctx context.Context, owner model.UserID, note string) (*model.Task, error) {
	return d.repo.GetTaskByNote(ctx, owner, note)
}

func (d *DefaultService) VisibleTasks(ctx context.Context, userID model.UserID) ([]model.Task, error) {
	return d.repo.ListVisibleTasks(ctx, userID)
}

func (d *DefaultService) TasksByDone(ctx context.Context, owner model.UserID, done bool) ([]model.Task, error) {
	return d.repo.ListTasksByDone(ctx, owner, done)
}

func (d *DefaultService) ReminderTasks(ctx context.Context) ([]model.Task, error) {
	return d.repo.ListReminderTasks(ctx)
}

func (d *DefaultService) FinishTask(ctx context.Context, owner model.UserID, note string) error {
	if _, err := d.repo.GetTaskByNote(ctx, owner, note); err != nil {
		return err
	}
	return d.repo.FinishTask(ctx, owner, note)
}

func (d *DefaultService) DeleteTask(ctx context.Context, owner model.UserID, note string) error {
	if _, err := d.repo.GetTaskByNote(ctx, owner, note); err != nil {
		return err
	}
	return d.repo.DeleteTask(ctx, owner, note)
}

func (d *DefaultService) ChangeNote(ctx context.Context, owner model.UserID, note, newNote string) error {
	if newNote == "" || utf8.RuneCountInString(newNote) > maxTaskNoteLen {
		return model.ErrNoteTooLong
	}

	if _, err := d.repo.GetTaskByNote(ctx, owner, note); err != nil {
		return err
	}

	if err := d.checkNoteFree(ctx, owner, newNote); err != nil {
		return err
	}

	return d.repo.UpdateTaskNote(ctx, owner, note, newNote)
}

// ChangeDeadline rejects values that are not strictly in the future.
func (d *DefaultService) ChangeDeadline(ctx context.Context, owner model.UserID, note string, deadline time.Time) error {
	if !deadline.After(d.now()) {
		return model.ErrDeadlineNotFuture
	}

	if _, err := d.repo.GetTaskByNote(ctx, owner, note); err != nil {
		return err
	}

	return d.repo.UpdateTaskDeadline(ctx, owner, note, deadline)
}

// ChangeAssignee requires a registered user distinct from the owner.
func (d *DefaultService) ChangeAssignee(ctx context.Context, owner model.UserID, note string, assignee model.UserID) error {
	if assignee == owner {
		return model.ErrSelfAssignee
	}

	exists, err := d.repo.UserExists(ctx, assignee)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrUserNotFound
	}

	if _, err = d.repo.GetTaskByNote(ctx, owner, note); err != nil {
		return err
	}

	return d.repo.UpdateTaskAssignee(ctx, owner, note, assignee)
}

// ToggleReminder flips the reminder flag and reports the new state.
// A task without a deadline cannot have a reminder.
func (d *DefaultService) ToggleReminder(ctx context.Context, owner model.UserID, note string) (bool, error) {
	task, err := d.repo.GetTaskByNote(ctx, owner, note)
	if err != nil {
		return false, err
	}

	if task.Deadline == nil {
		return false, model.ErrNoDeadline
	}

	enabled := !task.Reminder
	if err = d.repo.SetTaskReminder(ctx, owner, note, enabled); err != nil {
		return false, err
	}

	return enabled, nil
}

// CreateSubtask validates the raw input length, strips one leading command
// marker so a sub-task may be named after a command, and checks uniqueness
// against the stored form.
func (d *DefaultService) CreateSubtask(ctx context.Context, parent model.TaskID, note string) error {
	if note == "" || utf8.RuneCountInString(note) > maxSubtaskNoteLen {
		return model.ErrNoteTooLong
	}

	note = strings.TrimPrefix(note, "/")
	if note == "" {
		return model.ErrNoteTooLong
	}

	exists, err := d.repo.SubtaskExists(ctx, parent, note)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrDuplicateNote
	}

	return d.repo.CreateSubtask(ctx, parent, note)
}

func (d *DefaultService) Subtasks(ctx context.Context, parent model.TaskID) ([]model.Subtask, error) {
	return d.repo.ListSubtasks(ctx, parent)
}

func (d *DefaultService) FinishSubtask(ctx context.Context, parent model.TaskID, note string) error {
	if err := d.checkSubtaskExists(ctx, parent, note); err != nil {
		return err
	}
	return d.repo.FinishSubtask(ctx, parent, note)
}

func (d *DefaultService) DeleteSubtask(ctx context.Context, parent model.TaskID, note string) error {
	if err := d.checkSubtaskExists(ctx, parent, note); err != nil {
		return err
	}
	return d.repo.DeleteSubtask(ctx, parent, note)
}

func (d *DefaultService) checkNoteFree(ctx context.Context, owner model.UserID, note string) error {
	_, err := d.repo.GetTaskByNote(ctx, owner, note)
	switch {
	case err == nil:
		return model.ErrDuplicateNote
	case errors.Is(err, model.ErrTaskNotFound):
		return nil
	default:
		return err
	}
}

func (d *DefaultService) checkSubtaskExists(ctx context.Context, parent model.TaskID, note string) error {
	exists, err := d.repo.SubtaskExists(ctx, parent, note)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrSubtaskNotFound
	}
	return nil
}
