package bot

import (
	"fmt"
	"strings"

	"github.com/kotche/taskbot/internal/model"
)

const deadlineFormat = "02.01.2006"

var stateLabel = map[bool]string{true: "done", false: "undone"}

// taskEntry is a task with its sub-tasks, ready for rendering.
type taskEntry struct {
	task model.Task
	subs []model.Subtask
}

// renderTraditional produces the single-list view: every task with its
// done/undone label, the deadline line if any, and indented sub-tasks.
func renderTraditional(entries []taskEntry) string {
	var b strings.Builder
	b.WriteString("<b>HERE ARE YOUR TASKS:</b>\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s is <b>%s</b>\n", e.task.Note, stateLabel[e.task.Done])
		writeDeadline(&b, e.task)
		for _, sub := range e.subs {
			fmt.Fprintf(&b, "\t* %s is <b>%s</b>\n", sub.Note, stateLabel[sub.Done])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderKanban partitions tasks into TO-DO and DONE sections by the done flag.
// Sub-tasks are listed without their own state in this view.
func renderKanban(undone, done []taskEntry) string {
	var b strings.Builder
	b.WriteString("<b>TO-DO:</b>\n\n")
	writeKanbanSection(&b, undone)
	b.WriteString("<b>DONE:</b>\n\n")
	writeKanbanSection(&b, done)
	return b.String()
}

func writeKanbanSection(b *strings.Builder, entries []taskEntry) {
	for _, e := range entries {
		fmt.Fprintf(b, "- %s\n", e.task.Note)
		writeDeadline(b, e.task)
		for _, sub := range e.subs {
			fmt.Fprintf(b, "\t* %s\n", sub.Note)
		}
		b.WriteString("\n")
	}
}

func writeDeadline(b *strings.Builder, task model.Task) {
	if task.Deadline != nil {
		fmt.Fprintf(b, "\t<i>until %s</i>\n", task.Deadline.Format(deadlineFormat))
	}
}
