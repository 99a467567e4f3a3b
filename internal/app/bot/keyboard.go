package bot

import "github.com/kotche/taskbot/internal/model"

// placeholderNote fills the last row when the list is odd. It is never a real
// note: task notes are non-empty user text and the dash row is owner-less.
const placeholderNote = "---"

// pairNotes lays notes out two per keyboard row, padding an odd list with the
// placeholder so the keyboard stays rectangular.
func pairNotes(notes []string) [][]string {
	if len(notes) == 0 {
		return nil
	}

	paired := notes
	if len(notes)%2 == 1 {
		paired = make([]string, 0, len(notes)+1)
		paired = append(paired, notes...)
		paired = append(paired, placeholderNote)
	}

	rows := make([][]string, 0, len(paired)/2)
	for i := 0; i < len(paired); i += 2 {
		rows = append(rows, []string{paired[i], paired[i+1]})
	}
	return rows
}

func taskNotes(tasks []model.Task) []string {
	notes := make([]string, 0, len(tasks))
	for _, task := range tasks {
		notes = append(notes, task.Note)
	}
	return notes
}

func subtaskNotes(subs []model.Subtask) []string {
	notes := make([]string, 0, len(subs))
	for _, sub := range subs {
		notes = append(notes, sub.Note)
	}
	return notes
}
