package bot

// option is the closed set of edit-menu choices. Free text is parsed into it
// exactly once so every dispatch below is an exhaustive switch.
type option int

const (
	optUnknown option = iota
	optFinish
	optDelete
	optChangeNote
	optReminder
	optDeadline
	optAssignee
	optSubtasks
)

const (
	labelFinish     = "Finish"
	labelDelete     = "Delete"
	labelChangeNote = "Change note"
	labelReminder   = "Reminder"
	labelDeadline   = "Deadline"
	labelAssignee   = "Assignee"
	labelSubtasks   = "Sub-tasks"
)

// Matching is exact and case-sensitive.
func parseOption(text string) option {
	switch text {
	case labelFinish:
		return optFinish
	case labelDelete:
		return optDelete
	case labelChangeNote:
		return optChangeNote
	case labelReminder:
		return optReminder
	case labelDeadline:
		return optDeadline
	case labelAssignee:
		return optAssignee
	case labelSubtasks:
		return optSubtasks
	default:
		return optUnknown
	}
}

func editOptionsKeyboard() [][]string {
	return [][]string{
		{labelFinish, labelDelete},
		{labelChangeNote, labelReminder},
		{labelDeadline, labelAssignee},
		{labelSubtasks},
	}
}

func subtaskOptionsKeyboard() [][]string {
	return [][]string{
		{labelFinish, labelDelete},
	}
}
