package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kotche/taskbot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository with the same observable semantics as
// the Postgres implementation, cascade delete included.
type memRepo struct {
	users    map[model.UserID]model.User
	tasks    map[model.TaskID]*model.Task
	subs     map[model.SubtaskID]*model.Subtask
	nextTask model.TaskID
	nextSub  model.SubtaskID
}

func newMemRepo() *memRepo {
	return &memRepo{
		users: make(map[model.UserID]model.User),
		tasks: make(map[model.TaskID]*model.Task),
		subs:  make(map[model.SubtaskID]*model.Subtask),
	}
}

func (m *memRepo) UserExists(_ context.Context, userID model.UserID) (bool, error) {
	_, ok := m.users[userID]
	return ok, nil
}

func (m *memRepo) CreateUser(_ context.Context, user model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memRepo) GetUser(_ context.Context, userID model.UserID) (*model.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &user, nil
}

func (m *memRepo) ToggleStyle(_ context.Context, userID model.UserID) (model.DisplayStyle, error) {
	user, ok := m.users[userID]
	if !ok {
		return false, model.ErrUserNotFound
	}
	user.Style = !user.Style
	m.users[userID] = user
	return user.Style, nil
}

func (m *memRepo) CreateTask(_ context.Context, owner model.UserID, note string) error {
	m.nextTask++
	m.tasks[m.nextTask] = &model.Task{ID: m.nextTask, Owner: owner, Note: note}
	return nil
}

func (m *memRepo) GetTaskByNote(_ context.Context, owner model.UserID, note string) (*model.Task, error) {
	for _, task := range m.tasks {
		if task.Owner == owner && task.Note == note {
			copied := *task
			return &copied, nil
		}
	}
	return nil, model.ErrTaskNotFound
}

func (m *memRepo) ListVisibleTasks(_ context.Context, userID model.UserID) ([]model.Task, error) {
	var out []model.Task
	for _, task := range m.tasks {
		if task.Owner == userID || task.Assignee == userID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *memRepo) ListTasksByDone(_ context.Context, owner model.UserID, done bool) ([]model.Task, error) {
	var out []model.Task
	for _, task := range m.tasks {
		if task.Owner == owner && task.Done == done {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *memRepo) ListReminderTasks(_ context.Context) ([]model.Task, error) {
	var out []model.Task
	for _, task := range m.tasks {
		if task.Reminder && task.Deadline != nil {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteTask(_ context.Context, owner model.UserID, note string) error {
	for id, task := range m.tasks {
		if task.Owner == owner && task.Note == note {
			delete(m.tasks, id)
			for subID, sub := range m.subs {
				if sub.Parent == id {
					delete(m.subs, subID)
				}
			}
		}
	}
	return nil
}

func (m *memRepo) FinishTask(_ context.Context, owner model.UserID, note string) error {
	m.mutateTask(owner, note, func(t *model.Task) { t.Done = true })
	return nil
}

func (m *memRepo) UpdateTaskNote(_ context.Context, owner model.UserID, note, newNote string) error {
	m.mutateTask(owner, note, func(t *model.Task) { t.Note = newNote })
	return nil
}

func (m *memRepo) UpdateTaskDeadline(_ context.Context, owner model.UserID, note string, deadline time.Time) error {
	m.mutateTask(owner, note, func(t *model.Task) { t.Deadline = &deadline })
	return nil
}

func (m *memRepo) UpdateTaskAssignee(_ context.Context, owner model.UserID, note string, assignee model.UserID) error {
	m.mutateTask(owner, note, func(t *model.Task) { t.Assignee = assignee })
	return nil
}

func (m *memRepo) SetTaskReminder(_ context.Context, owner model.UserID, note string, enabled bool) error {
	m.mutateTask(owner, note, func(t *model.Task) { t.Reminder = enabled })
	return nil
}

func (m *memRepo) mutateTask(owner model.UserID, note string, fn func(*model.Task)) {
	for _, task := range m.tasks {
		if task.Owner == owner && task.Note == note {
			fn(task)
		}
	}
}

func (m *memRepo) CreateSubtask(_ context.Context, parent model.TaskID, note string) error {
	m.nextSub++
	m.subs[m.nextSub] = &model.Subtask{ID: m.nextSub, Parent: parent, Note: note}
	return nil
}

func (m *memRepo) ListSubtasks(_ context.Context, parent model.TaskID) ([]model.Subtask, error) {
	var out []model.Subtask
	for _, sub := range m.subs {
		if sub.Parent == parent {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memRepo) SubtaskExists(_ context.Context, parent model.TaskID, note string) (bool, error) {
	for _, sub := range m.subs {
		if sub.Parent == parent && sub.Note == note {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) FinishSubtask(_ context.Context, parent model.TaskID, note string) error {
	for _, sub := range m.subs {
		if sub.Parent == parent && sub.Note == note {
			sub.Done = true
		}
	}
	return nil
}

func (m *memRepo) DeleteSubtask(_ context.Context, parent model.TaskID, note string) error {
	for id, sub := range m.subs {
		if sub.Parent == parent && sub.Note == note {
			delete(m.subs, id)
		}
	}
	return nil
}

func newTestService() (*DefaultService, *memRepo) {
	repo := newMemRepo()
	return NewDefaultService(repo), repo
}

const (
	owner    = model.UserID(1)
	assignee = model.UserID(2)
)

func TestCreateTask_Valid(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "buy milk"))

	task, err := serv.TaskByNote(ctx, owner, "buy milk")
	require.NoError(t, err)
	assert.Equal(t, owner, task.Owner)
	assert.False(t, task.Done)
	assert.Nil(t, task.Deadline)
}

func TestCreateTask_DuplicateNoteRejected(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "buy milk"))
	err := serv.CreateTask(ctx, owner, "buy milk")

	assert.ErrorIs(t, err, model.ErrDuplicateNote)
	assert.Len(t, repo.tasks, 1)
}

func TestCreateTask_SameNoteDifferentOwner(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "buy milk"))
	assert.NoError(t, serv.CreateTask(ctx, assignee, "buy milk"))
}

func TestCreateTask_NoteLength(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, serv.CreateTask(ctx, owner, ""), model.ErrNoteTooLong)
	assert.ErrorIs(t, serv.CreateTask(ctx, owner, strings.Repeat("x", 101)), model.ErrNoteTooLong)
	assert.NoError(t, serv.CreateTask(ctx, owner, strings.Repeat("x", 100)))
}

func TestCreateSubtask_StripsCommandMarkerOnce(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "chores"))
	parent := taskID(t, repo, "chores")

	require.NoError(t, serv.CreateSubtask(ctx, parent, "/take out trash"))
	require.NoError(t, serv.CreateSubtask(ctx, parent, "//weird"))

	subs, err := serv.Subtasks(ctx, parent)
	require.NoError(t, err)
	notes := make([]string, 0, len(subs))
	for _, sub := range subs {
		notes = append(notes, sub.Note)
	}
	assert.ElementsMatch(t, []string{"take out trash", "/weird"}, notes)
}

func TestCreateSubtask_DuplicateAmongSiblings(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "chores"))
	parent := taskID(t, repo, "chores")

	require.NoError(t, serv.CreateSubtask(ctx, parent, "dishes"))
	assert.ErrorIs(t, serv.CreateSubtask(ctx, parent, "dishes"), model.ErrDuplicateNote)

	// stripped form collides with the stored one too
	assert.ErrorIs(t, serv.CreateSubtask(ctx, parent, "/dishes"), model.ErrDuplicateNote)
}

func TestCreateSubtask_NoteLength(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "chores"))
	parent := taskID(t, repo, "chores")

	assert.ErrorIs(t, serv.CreateSubtask(ctx, parent, strings.Repeat("y", 51)), model.ErrNoteTooLong)
	assert.NoError(t, serv.CreateSubtask(ctx, parent, strings.Repeat("y", 50)))
}

func TestChangeDeadline(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	serv.now = func() time.Time { return now }

	require.NoError(t, serv.CreateTask(ctx, owner, "file taxes"))

	assert.ErrorIs(t, serv.ChangeDeadline(ctx, owner, "file taxes", now.Add(-time.Hour)), model.ErrDeadlineNotFuture)
	assert.ErrorIs(t, serv.ChangeDeadline(ctx, owner, "file taxes", now), model.ErrDeadlineNotFuture)

	future := now.Add(24 * time.Hour)
	require.NoError(t, serv.ChangeDeadline(ctx, owner, "file taxes", future))

	task, err := serv.TaskByNote(ctx, owner, "file taxes")
	require.NoError(t, err)
	require.NotNil(t, task.Deadline)
	assert.True(t, task.Deadline.Equal(future))
}

func TestChangeAssignee(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.EnsureUserExists(ctx, model.User{ID: owner}))
	require.NoError(t, serv.CreateTask(ctx, owner, "review PR"))

	assert.ErrorIs(t, serv.ChangeAssignee(ctx, owner, "review PR", owner), model.ErrSelfAssignee)
	assert.ErrorIs(t, serv.ChangeAssignee(ctx, owner, "review PR", assignee), model.ErrUserNotFound)

	require.NoError(t, serv.EnsureUserExists(ctx, model.User{ID: assignee}))
	require.NoError(t, serv.ChangeAssignee(ctx, owner, "review PR", assignee))

	task, err := serv.TaskByNote(ctx, owner, "review PR")
	require.NoError(t, err)
	assert.Equal(t, assignee, task.Assignee)
}

func TestToggleReminder_RequiresDeadline(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "file taxes"))

	_, err := serv.ToggleReminder(ctx, owner, "file taxes")
	assert.ErrorIs(t, err, model.ErrNoDeadline)
}

func TestToggleReminder_Flips(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	serv.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, serv.CreateTask(ctx, owner, "file taxes"))
	require.NoError(t, serv.ChangeDeadline(ctx, owner, "file taxes", serv.now().Add(48*time.Hour)))

	on, err := serv.ToggleReminder(ctx, owner, "file taxes")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := serv.ToggleReminder(ctx, owner, "file taxes")
	require.NoError(t, err)
	assert.False(t, off)
}

func TestChangeNote(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "old"))
	require.NoError(t, serv.CreateTask(ctx, owner, "taken"))

	assert.ErrorIs(t, serv.ChangeNote(ctx, owner, "old", "taken"), model.ErrDuplicateNote)
	assert.ErrorIs(t, serv.ChangeNote(ctx, owner, "old", strings.Repeat("x", 101)), model.ErrNoteTooLong)
	assert.ErrorIs(t, serv.ChangeNote(ctx, owner, "missing", "new"), model.ErrTaskNotFound)

	require.NoError(t, serv.ChangeNote(ctx, owner, "old", "new"))
	_, err := serv.TaskByNote(ctx, owner, "new")
	assert.NoError(t, err)
}

func TestDeleteTask_CascadesSubtasks(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "chores"))
	require.NoError(t, serv.CreateTask(ctx, owner, "work"))
	chores := taskID(t, repo, "chores")
	work := taskID(t, repo, "work")
	require.NoError(t, serv.CreateSubtask(ctx, chores, "dishes"))
	require.NoError(t, serv.CreateSubtask(ctx, work, "standup"))

	require.NoError(t, serv.DeleteTask(ctx, owner, "chores"))

	choresSubs, err := serv.Subtasks(ctx, chores)
	require.NoError(t, err)
	assert.Empty(t, choresSubs)

	workSubs, err := serv.Subtasks(ctx, work)
	require.NoError(t, err)
	assert.Len(t, workSubs, 1)
}

func TestDeleteSubtask_LeavesSiblings(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "chores"))
	parent := taskID(t, repo, "chores")
	require.NoError(t, serv.CreateSubtask(ctx, parent, "dishes"))
	require.NoError(t, serv.CreateSubtask(ctx, parent, "laundry"))

	require.NoError(t, serv.DeleteSubtask(ctx, parent, "dishes"))

	subs, err := serv.Subtasks(ctx, parent)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "laundry", subs[0].Note)

	_, err = serv.TaskByNote(ctx, owner, "chores")
	assert.NoError(t, err)
}

func TestDeleteSubtask_Missing(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.CreateTask(ctx, owner, "chores"))
	parent := taskID(t, repo, "chores")

	assert.ErrorIs(t, serv.DeleteSubtask(ctx, parent, "nope"), model.ErrSubtaskNotFound)
	assert.ErrorIs(t, serv.FinishSubtask(ctx, parent, "nope"), model.ErrSubtaskNotFound)
}

func TestEnsureUserExists_Idempotent(t *testing.T) {
	serv, repo := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.EnsureUserExists(ctx, model.User{ID: owner, Login: "alice"}))
	require.NoError(t, serv.EnsureUserExists(ctx, model.User{ID: owner, Login: "renamed"}))

	assert.Len(t, repo.users, 1)
	assert.Equal(t, "alice", repo.users[owner].Login)
	assert.Equal(t, model.StyleTraditional, repo.users[owner].Style)
}

func TestToggleStyle(t *testing.T) {
	serv, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, serv.EnsureUserExists(ctx, model.User{ID: owner}))

	style, err := serv.ToggleStyle(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.StyleKanban, style)

	style, err = serv.Style(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.StyleKanban, style)
}

func taskID(t *testing.T, repo *memRepo, note string) model.TaskID {
	t.Helper()
	task, err := repo.GetTaskByNote(context.Background(), owner, note)
	require.NoError(t, err)
	return task.ID
}
