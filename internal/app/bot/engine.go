package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/kotche/taskbot/internal/model"
	"github.com/kotche/taskbot/internal/service/tasks"
)

const (
	longProcessTimeout = 2 * time.Second

	cmdCancel = "/cancel"
)

const (
	msgWelcome = "Welcome. Type /help to get command list"
	msgHelp    = "Available commands:\n" +
		"/show - show your tasks\n" +
		"/task - create a new task\n" +
		"/sub - create a sub-task\n" +
		"/edit - edit a task or its sub-tasks\n" +
		"/style - switch between traditional and kanban view\n" +
		"/cancel - cancel the current dialog\n" +
		"/help - show this message"

	msgCancelled     = "Cancelled"
	msgSomethingWent = "Whoops, something went wrong"
	msgDone          = "Done"

	msgAskTaskNote    = "Send me task description (max 100 characters)"
	msgTaskCreated    = "OK! You can specify other details using /edit"
	msgBadTaskNote    = "It's wrong out there, try again"
	msgChooseParent   = "OK! Now choose the main task"
	msgAskSubtaskNote = "Send me sub-task description (max 50 characters)"
	msgBadSubtaskNote = "Something is wrong. Try again"
	msgNoSuchTask     = "There is no such task"
	msgNoSuchSubtask  = "There is no such sub-task"
	msgNoTasksYet     = "You have no tasks yet"
	msgChooseTask     = "Choose a task"
	msgChooseOption   = "Choose option"
	msgChooseSubtask  = "Now choose a sub-task"
	msgUnknownOption  = "Unknown option"
	msgNoSubtasks     = "This task has no sub-tasks"
	msgNoDeadline     = "This task has no deadline"
	msgDeleted        = "Deleted"
	msgAskNewNote     = "Send new description"
	msgAskDeadline    = "Send a date in format 'DD.MM.YYYY'"
	msgAskAssignee    = "Send me Telegram ID of your assignee"
	msgPastDeadline   = "The deadline must be in the future"
	msgBadValue       = "Whoops! Something is wrong, try again"
	msgSelfAssignee   = "You cannot assign the task to yourself"
	msgNoSuchUser     = "There is no such user"
	msgStartFirst     = "Type /start first"
)

// Reply is what the engine wants sent back to the user. An empty Text means
// no response at all.
type Reply struct {
	Text           string
	Keyboard       [][]string // quick-reply rows, two options per row
	RemoveKeyboard bool
	HTML           bool
}

// Engine drives the multi-step dialogs. Each user has at most one session;
// dialogs of different users are independent.
type Engine struct {
	tasks    tasks.Service
	sessions *sessionStore
}

func NewEngine(service tasks.Service) *Engine {
	return &Engine{
		tasks:    service,
		sessions: newSessionStore(),
	}
}

func (e *Engine) Start(userID model.UserID, login string) Reply {
	ctx, cancel := stepContext()
	defer cancel()

	if err := e.tasks.EnsureUserExists(ctx, model.User{ID: userID, Login: login}); err != nil {
		log.Printf("failed to ensure user '%d' exists: %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}
	return Reply{Text: msgWelcome}
}

func (e *Engine) Help() Reply {
	return Reply{Text: msgHelp}
}

// Show renders the task list in the user's preferred style.
func (e *Engine) Show(userID model.UserID) Reply {
	ctx, cancel := stepContext()
	defer cancel()

	style, err := e.tasks.Style(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return Reply{Text: msgStartFirst}
		}
		log.Printf("failed to get style for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}

	if style == model.StyleTraditional {
		taskList, err := e.tasks.VisibleTasks(ctx, userID)
		if err != nil {
			log.Printf("failed to list tasks for user '%d': %v", userID, err)
			return Reply{Text: msgSomethingWent}
		}
		entries, err := e.withSubtasks(ctx, taskList)
		if err != nil {
			log.Printf("failed to list sub-tasks for user '%d': %v", userID, err)
			return Reply{Text: msgSomethingWent}
		}
		return Reply{Text: renderTraditional(entries), HTML: true}
	}

	undone, err := e.tasks.TasksByDone(ctx, userID, false)
	if err != nil {
		log.Printf("failed to list undone tasks for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}
	done, err := e.tasks.TasksByDone(ctx, userID, true)
	if err != nil {
		log.Printf("failed to list done tasks for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}

	undoneEntries, err := e.withSubtasks(ctx, undone)
	if err != nil {
		log.Printf("failed to list sub-tasks for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}
	doneEntries, err := e.withSubtasks(ctx, done)
	if err != nil {
		log.Printf("failed to list sub-tasks for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}

	return Reply{Text: renderKanban(undoneEntries, doneEntries), HTML: true}
}

// BeginTask opens the task-creation dialog.
func (e *Engine) BeginTask(userID model.UserID) Reply {
	e.sessions.put(userID, session{step: stepTaskNote})
	return Reply{Text: msgAskTaskNote}
}

// BeginSubtask opens the sub-task dialog with a keyboard of parent candidates.
func (e *Engine) BeginSubtask(userID model.UserID) Reply {
	return e.beginSelection(userID, stepParentSelect, msgChooseParent)
}

// BeginEdit opens the edit dialog with a keyboard of task candidates.
func (e *Engine) BeginEdit(userID model.UserID) Reply {
	return e.beginSelection(userID, stepTaskSelect, msgChooseTask)
}

func (e *Engine) beginSelection(userID model.UserID, next step, prompt string) Reply {
	ctx, cancel := stepContext()
	defer cancel()

	taskList, err := e.tasks.VisibleTasks(ctx, userID)
	if err != nil {
		log.Printf("failed to list tasks for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}
	if len(taskList) == 0 {
		return Reply{Text: msgNoTasksYet}
	}

	e.sessions.put(userID, session{step: next})
	return Reply{Text: prompt, Keyboard: pairNotes(taskNotes(taskList))}
}

// ToggleStyle switches between the traditional and kanban views.
func (e *Engine) ToggleStyle(userID model.UserID) Reply {
	ctx, cancel := stepContext()
	defer cancel()

	style, err := e.tasks.ToggleStyle(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return Reply{Text: msgStartFirst}
		}
		log.Printf("failed to toggle style for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}
	return Reply{Text: "Style changed to " + style.String()}
}

// Continue feeds the next inbound message into the user's pending dialog.
// Without a pending session the text is ignored. The cancel token is honored
// in every state before any step-specific parsing. The session is dropped up
// front and re-armed only by steps that advance, so no context survives a
// failed step.
func (e *Engine) Continue(userID model.UserID, text string) Reply {
	sess, ok := e.sessions.get(userID)
	if !ok {
		return Reply{}
	}
	e.sessions.clear(userID)

	if text == cmdCancel {
		return Reply{Text: msgCancelled, RemoveKeyboard: true}
	}

	ctx, cancel := stepContext()
	defer cancel()

	switch sess.step {
	case stepTaskNote:
		return e.taskNoteStep(ctx, userID, text)
	case stepParentSelect:
		return e.parentSelectStep(ctx, userID, text)
	case stepSubtaskNote:
		return e.subtaskNoteStep(ctx, sess, text)
	case stepTaskSelect:
		return e.taskSelectStep(ctx, userID, text)
	case stepEditOption:
		return e.editOptionStep(ctx, userID, sess, text)
	case stepSubtaskSelect:
		return e.subtaskSelectStep(ctx, userID, sess, text)
	case stepSubtaskOption:
		return e.subtaskOptionStep(ctx, sess, text)
	case stepNewNote:
		return e.newNoteStep(ctx, userID, sess, text)
	case stepNewDeadline:
		return e.newDeadlineStep(ctx, userID, sess, text)
	case stepNewAssignee:
		return e.newAssigneeStep(ctx, userID, sess, text)
	}

	return Reply{}
}

func (e *Engine) taskNoteStep(ctx context.Context, userID model.UserID, text string) Reply {
	err := e.tasks.CreateTask(ctx, userID, text)
	switch {
	case err == nil:
		return Reply{Text: msgTaskCreated}
	case errors.Is(err, model.ErrNoteTooLong), errors.Is(err, model.ErrDuplicateNote):
		return Reply{Text: msgBadTaskNote}
	default:
		log.Printf("failed to create task for user '%d': %v", userID, err)
		return Reply{Text: msgSomethingWent}
	}
}

func (e *Engine) parentSelectStep(ctx context.Context, userID model.UserID, text string) Reply {
	task, err := e.tasks.TaskByNote(ctx, userID, text)
	switch {
	case err == nil:
		e.sessions.put(userID, session{step: stepSubtaskNote, task: task.Note, parent: task.ID})
		return Reply{Text: msgAskSubtaskNote, RemoveKeyboard: true}
	case errors.Is(err, model.ErrTaskNotFound):
		return Reply{Text: msgNoSuchTask, RemoveKeyboard: true}
	default:
		log.Printf("failed to find task '%s' for user '%d': %v", text, userID, err)
		return Reply{Text: msgSomethingWent, RemoveKeyboard: true}
	}
}

func (e *Engine) subtaskNoteStep(ctx context.Context, sess session, text string) Reply {
	err := e.tasks.CreateSubtask(ctx, sess.parent, text)
	switch {
	case err == nil:
		return Reply{Text: msgDone}
	case errors.Is(err, model.ErrNoteTooLong), errors.Is(err, model.ErrDuplicateNote):
		return Reply{Text: msgBadSubtaskNote}
	default:
		log.Printf("failed to create sub-task of task '%d': %v", sess.parent, err)
		return Reply{Text: msgSomethingWent}
	}
}

func (e *Engine) taskSelectStep(ctx context.Context, userID model.UserID, text string) Reply {
	task, err := e.tasks.TaskByNote(ctx, userID, text)
	switch {
	case err == nil:
		e.sessions.put(userID, session{step: stepEditOption, task: task.Note, parent: task.ID})
		return Reply{Text: msgChooseOption, Keyboard: editOptionsKeyboard()}
	case errors.Is(err, model.ErrTaskNotFound):
		return Reply{Text: msgNoSuchTask, RemoveKeyboard: true}
	default:
		log.Printf("failed to find task '%s' for user '%d': %v", text, userID, err)
		return Reply{Text: msgSomethingWent, RemoveKeyboard: true}
	}
}

func (e *Engine) editOptionStep(ctx context.Context, userID model.UserID, sess session, text string) Reply {
	switch parseOption(text) {
	case optFinish:
		if err := e.tasks.FinishTask(ctx, userID, sess.task); err != nil {
			return e.commitFailure(err, "finish task", sess.task, userID)
		}
		return Reply{Text: msgDone, RemoveKeyboard: true}

	case optDelete:
		if err := e.tasks.DeleteTask(ctx, userID, sess.task); err != nil {
			return e.commitFailure(err, "delete task", sess.task, userID)
		}
		return Reply{Text: msgDeleted, RemoveKeyboard: true}

	case optReminder:
		enabled, err := e.tasks.ToggleReminder(ctx, userID, sess.task)
		switch {
		case err == nil:
			state := "off"
			if enabled {
				state = "on"
			}
			return Reply{Text: "OK! Reminder turned " + state, RemoveKeyboard: true}
		case errors.Is(err, model.ErrNoDeadline):
			return Reply{Text: msgNoDeadline, RemoveKeyboard: true}
		default:
			return e.commitFailure(err, "toggle reminder of task", sess.task, userID)
		}

	case optChangeNote:
		e.sessions.put(userID, session{step: stepNewNote, task: sess.task})
		return Reply{Text: msgAskNewNote, RemoveKeyboard: true}

	case optDeadline:
		e.sessions.put(userID, session{step: stepNewDeadline, task: sess.task})
		return Reply{Text: msgAskDeadline, RemoveKeyboard: true}

	case optAssignee:
		e.sessions.put(userID, session{step: stepNewAssignee, task: sess.task})
		return Reply{Text: msgAskAssignee, RemoveKeyboard: true}

	case optSubtasks:
		subs, err := e.tasks.Subtasks(ctx, sess.parent)
		if err != nil {
			return e.commitFailure(err, "list sub-tasks of task", sess.task, userID)
		}
		if len(subs) == 0 {
			return Reply{Text: msgNoSubtasks, RemoveKeyboard: true}
		}
		e.sessions.put(userID, session{step: stepSubtaskSelect, task: sess.task, parent: sess.parent})
		return Reply{Text: msgChooseSubtask, Keyboard: pairNotes(subtaskNotes(subs))}

	default:
		return Reply{Text: msgUnknownOption, RemoveKeyboard: true}
	}
}

func (e *Engine) subtaskSelectStep(ctx context.Context, userID model.UserID, sess session, text string) Reply {
	subs, err := e.tasks.Subtasks(ctx, sess.parent)
	if err != nil {
		return e.commitFailure(err, "list sub-tasks of task", sess.task, userID)
	}

	for _, sub := range subs {
		if sub.Note == text {
			e.sessions.put(userID, session{
				step:    stepSubtaskOption,
				task:    sess.task,
				parent:  sess.parent,
				subtask: sub.Note,
			})
			return Reply{Text: msgChooseOption, Keyboard: subtaskOptionsKeyboard()}
		}
	}

	return Reply{Text: msgNoSuchSubtask, RemoveKeyboard: true}
}

func (e *Engine) subtaskOptionStep(ctx context.Context, sess session, text string) Reply {
	switch parseOption(text) {
	case optFinish:
		if err := e.tasks.FinishSubtask(ctx, sess.parent, sess.subtask); err != nil {
			log.Printf("failed to finish sub-task '%s' of task '%d': %v", sess.subtask, sess.parent, err)
			return Reply{Text: msgSomethingWent, RemoveKeyboard: true}
		}
		return Reply{Text: msgDone, RemoveKeyboard: true}

	case optDelete:
		if err := e.tasks.DeleteSubtask(ctx, sess.parent, sess.subtask); err != nil {
			log.Printf("failed to delete sub-task '%s' of task '%d': %v", sess.subtask, sess.parent, err)
			return Reply{Text: msgSomethingWent, RemoveKeyboard: true}
		}
		return Reply{Text: msgDeleted, RemoveKeyboard: true}

	default:
		return Reply{Text: msgUnknownOption, RemoveKeyboard: true}
	}
}

func (e *Engine) newNoteStep(ctx context.Context, userID model.UserID, sess session, text string) Reply {
	err := e.tasks.ChangeNote(ctx, userID, sess.task, text)
	switch {
	case err == nil:
		return Reply{Text: msgDone}
	case errors.Is(err, model.ErrNoteTooLong), errors.Is(err, model.ErrDuplicateNote):
		return Reply{Text: msgBadTaskNote}
	case errors.Is(err, model.ErrTaskNotFound):
		return Reply{Text: msgNoSuchTask}
	default:
		log.Printf("failed to change note of task '%s' for user '%d': %v", sess.task, userID, err)
		return Reply{Text: msgSomethingWent}
	}
}

func (e *Engine) newDeadlineStep(ctx context.Context, userID model.UserID, sess session, text string) Reply {
	deadline, err := time.Parse(deadlineFormat, text)
	if err != nil {
		return Reply{Text: msgBadValue}
	}

	err = e.tasks.ChangeDeadline(ctx, userID, sess.task, deadline)
	switch {
	case err == nil:
		return Reply{Text: msgDone}
	case errors.Is(err, model.ErrDeadlineNotFuture):
		return Reply{Text: msgPastDeadline}
	case errors.Is(err, model.ErrTaskNotFound):
		return Reply{Text: msgNoSuchTask}
	default:
		log.Printf("failed to change deadline of task '%s' for user '%d': %v", sess.task, userID, err)
		return Reply{Text: msgSomethingWent}
	}
}

func (e *Engine) newAssigneeStep(ctx context.Context, userID model.UserID, sess session, text string) Reply {
	assignee, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Reply{Text: msgBadValue}
	}

	err = e.tasks.ChangeAssignee(ctx, userID, sess.task, model.UserID(assignee))
	switch {
	case err == nil:
		return Reply{Text: msgDone}
	case errors.Is(err, model.ErrSelfAssignee):
		return Reply{Text: msgSelfAssignee}
	case errors.Is(err, model.ErrUserNotFound):
		return Reply{Text: msgNoSuchUser}
	case errors.Is(err, model.ErrTaskNotFound):
		return Reply{Text: msgNoSuchTask}
	default:
		log.Printf("failed to change assignee of task '%s' for user '%d': %v", sess.task, userID, err)
		return Reply{Text: msgSomethingWent}
	}
}

func (e *Engine) commitFailure(err error, action, note string, userID model.UserID) Reply {
	if errors.Is(err, model.ErrTaskNotFound) {
		return Reply{Text: msgNoSuchTask, RemoveKeyboard: true}
	}
	log.Printf("failed to %s '%s' for user '%d': %v", action, note, userID, err)
	return Reply{Text: msgSomethingWent, RemoveKeyboard: true}
}

func (e *Engine) withSubtasks(ctx context.Context, taskList []model.Task) ([]taskEntry, error) {
	entries := make([]taskEntry, 0, len(taskList))
	for _, task := range taskList {
		subs, err := e.tasks.Subtasks(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, taskEntry{task: task, subs: subs})
	}
	return entries, nil
}

func stepContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), longProcessTimeout)
}
