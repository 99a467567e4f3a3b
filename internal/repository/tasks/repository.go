package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kotche/taskbot/infrastructure/tracing"
	"github.com/kotche/taskbot/internal/model"
	_ "github.com/lib/pq"

	"github.com/Masterminds/squirrel"
)

type DefaultRepository struct {
	db *sql.DB
}

func NewDefaultRepository(pg *sql.DB) *DefaultRepository {
	return &DefaultRepository{pg}
}

func (d *DefaultRepository) UserExists(ctx context.Context, userID model.UserID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to get user '%d' exists: %w", userID, err)
	}
	return exists, nil
}

func (d *DefaultRepository) CreateUser(ctx context.Context, user model.User) error {
	query := `INSERT INTO users (id, login, traditional, created_at) VALUES ($1, $2, $3, NOW())`
	if _, err := d.db.ExecContext(ctx, query, user.ID, user.Login, bool(user.Style)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (d *DefaultRepository) GetUser(ctx context.Context, userID model.UserID) (*model.User, error) {
	user := &model.User{}
	var traditional bool
	query := `SELECT id, login, traditional FROM users WHERE id = $1`
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.Login, &traditional)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user '%d': %w", userID, err)
	}
	user.Style = model.DisplayStyle(traditional)
	return user, nil
}

func (d *DefaultRepository) ToggleStyle(ctx context.Context, userID model.UserID) (model.DisplayStyle, error) {
	var traditional bool
	query := `UPDATE users SET traditional = NOT traditional WHERE id = $1 RETURNING traditional`
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&traditional)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, model.ErrUserNotFound
		}
		return false, fmt.Errorf("failed to toggle style for user '%d': %w", userID, err)
	}
	return model.DisplayStyle(traditional), nil
}

func (d *DefaultRepository) CreateTask(ctx context.Context, owner model.UserID, note string) error {
	query := `INSERT INTO tasks (owner_id, note, created_at) VALUES ($1, $2, NOW())`
	if _, err := d.db.ExecContext(ctx, query, owner, note); err != nil {
		return fmt.Errorf("failed to create task for user '%d': %w", owner, err)
	}
	return nil
}

func (d *DefaultRepository) GetTaskByNote(ctx context.Context, owner model.UserID, note string) (*model.Task, error) {
	task := &model.Task{}
	query := `SELECT id, owner_id, assignee, note, deadline, reminder, done FROM tasks WHERE owner_id = $1 AND note = $2`
	err := d.db.QueryRowContext(ctx, query, owner, note).
		Scan(&task.ID, &task.Owner, &task.Assignee, &task.Note, &task.Deadline, &task.Reminder, &task.Done)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task '%s' for user '%d': %w", note, owner, err)
	}
	return task, nil
}

// ListVisibleTasks returns tasks the user owns plus tasks assigned to them.
func (d *DefaultRepository) ListVisibleTasks(ctx context.Context, userID model.UserID) ([]model.Task, error) {
	ctx, span := tracing.StartSpan(ctx, "ListVisibleTasks_repo")
	defer span.End()

	queryBuilder := squirrel.
		Select("id",
			"owner_id",
			"assignee",
			"note",
			"deadline",
			"reminder",
			"done").
		From("tasks").
		Where(squirrel.Or{
			squirrel.Eq{"owner_id": userID},
			squirrel.Eq{"assignee": userID},
		}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return d.queryTasks(ctx, query, args...)
}

func (d *DefaultRepository) ListTasksByDone(ctx context.Context, owner model.UserID, done bool) ([]model.Task, error) {
	queryBuilder := squirrel.
		Select("id",
			"owner_id",
			"assignee",
			"note",
			"deadline",
			"reminder",
			"done").
		From("tasks").
		Where(squirrel.Eq{"owner_id": owner, "done": done}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return d.queryTasks(ctx, query, args...)
}

func (d *DefaultRepository) ListReminderTasks(ctx context.Context) ([]model.Task, error) {
	queryBuilder := squirrel.
		Select("id",
			"owner_id",
			"assignee",
			"note",
			"deadline",
			"reminder",
			"done").
		From("tasks").
		Where(squirrel.Eq{"reminder": true}).
		Where("deadline IS NOT NULL").
		OrderBy("deadline").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return d.queryTasks(ctx, query, args...)
}

func (d *DefaultRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var task model.Task
		if err = rows.Scan(&task.ID, &task.Owner, &task.Assignee, &task.Note, &task.Deadline, &task.Reminder, &task.Done); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// DeleteTask removes the task; subtasks go with it via ON DELETE CASCADE.
func (d *DefaultRepository) DeleteTask(ctx context.Context, owner model.UserID, note string) error {
	query := `DELETE FROM tasks WHERE owner_id = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, owner, note); err != nil {
		return fmt.Errorf("failed to delete task '%s' for user '%d': %w", note, owner, err)
	}
	return nil
}

func (d *DefaultRepository) FinishTask(ctx context.Context, owner model.UserID, note string) error {
	query := `UPDATE tasks SET done = TRUE WHERE owner_id = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, owner, note); err != nil {
		return fmt.Errorf("failed to finish task '%s' for user '%d': %w", note, owner, err)
	}
	return nil
}

func (d *DefaultRepository) UpdateTaskNote(ctx context.Context, owner model.UserID, note, newNote string) error {
	query := `UPDATE tasks SET note = $3 WHERE owner_id = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, owner, note, newNote); err != nil {
		return fmt.Errorf("failed to change note of task '%s' for user '%d': %w", note, owner, err)
	}
	return nil
}

func (d *DefaultRepository) UpdateTaskDeadline(ctx context.Context, owner model.UserID, note string, deadline time.Time) error {
	query := `UPDATE tasks SET deadline = $3 WHERE owner_id = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, owner, note, deadline); err != nil {
		return fmt.Errorf("failed to change deadline of task '%s' for user '%d': %w", note, owner, err)
	}
	return nil
}

func (d *DefaultRepository) UpdateTaskAssignee(ctx context.Context, owner model.UserID, note string, assignee model.UserID) error {
	query := `UPDATE tasks SET assignee = $3 WHERE owner_id = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, owner, note, assignee); err != nil {
		return fmt.Errorf("failed to change assignee of task '%s' for user '%d': %w", note, owner, err)
	}
	return nil
}

func (d *DefaultRepository) SetTaskReminder(ctx context.Context, owner model.UserID, note string, enabled bool) error {
	query := `UPDATE tasks SET reminder = $3 WHERE owner_id = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, owner, note, enabled); err != nil {
		return fmt.Errorf("failed to set reminder of task '%s' for user '%d': %w", note, owner, err)
	}
	return nil
}

func (d *DefaultRepository) CreateSubtask(ctx context.Context, parent model.TaskID, note string) error {
	query := `INSERT INTO subtasks (parent, note, created_at) VALUES ($1, $2, NOW())`
	if _, err := d.db.ExecContext(ctx, query, parent, note); err != nil {
		return fmt.Errorf("failed to create sub-task for task '%d': %w", parent, err)
	}
	return nil
}

func (d *DefaultRepository) ListSubtasks(ctx context.Context, parent model.TaskID) ([]model.Subtask, error) {
	queryBuilder := squirrel.
		Select("id",
			"parent",
			"note",
			"done").
		From("subtasks").
		Where(squirrel.Eq{"parent": parent}).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sub-tasks: %w", err)
	}
	defer rows.Close()

	var subs []model.Subtask
	for rows.Next() {
		var sub model.Subtask
		if err = rows.Scan(&sub.ID, &sub.Parent, &sub.Note, &sub.Done); err != nil {
			return nil, fmt.Errorf("failed to scan sub-task: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (d *DefaultRepository) SubtaskExists(ctx context.Context, parent model.TaskID, note string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM subtasks WHERE parent = $1 AND note = $2)`
	err := d.db.QueryRowContext(ctx, query, parent, note).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to get sub-task '%s' of task '%d' exists: %w", note, parent, err)
	}
	return exists, nil
}

func (d *DefaultRepository) FinishSubtask(ctx context.Context, parent model.TaskID, note string) error {
	query := `UPDATE subtasks SET done = TRUE WHERE parent = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, parent, note); err != nil {
		return fmt.Errorf("failed to finish sub-task '%s' of task '%d': %w", note, parent, err)
	}
	return nil
}

func (d *DefaultRepository) DeleteSubtask(ctx context.Context, parent model.TaskID, note string) error {
	query := `DELETE FROM subtasks WHERE parent = $1 AND note = $2`
	if _, err := d.db.ExecContext(ctx, query, parent, note); err != nil {
		return fmt.Errorf("failed to delete sub-task '%s' of task '%d': %w", note, parent, err)
	}
	return nil
}
