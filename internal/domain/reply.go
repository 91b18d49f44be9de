package domain

// MemoryUpdate lists the state sub-keys a turn changed. Nil fields mean unchanged.
type MemoryUpdate struct {
	LastQuery       *QueryMemory
	KnownCategories []string
	// ClearPendingClarification drops the stored clarification when PendingClarification is nil.
	PendingClarification      *ActiveTask
	ClearPendingClarification bool
}

func (u *MemoryUpdate) IsEmpty() bool {
	return u == nil || (u.LastQuery == nil && u.KnownCategories == nil && u.PendingClarification == nil && !u.ClearPendingClarification)
}

// AgentReply is the complete outcome of one turn.
//
// ShouldUpdateActiveTask false keeps the stored task; true with a nil ActiveTask clears it;
// true with a task replaces it.
type AgentReply struct {
	Reply                  string
	ToolResult             any
	Plan                   Plan
	ActiveTask             *ActiveTask
	ShouldUpdateActiveTask bool
	MemoryUpdate           *MemoryUpdate
}

type TaskUpdate int

const (
	TaskKeep TaskUpdate = iota
	TaskClear
	TaskReplace
)

func (r AgentReply) TaskUpdate() TaskUpdate {
	switch {
	case !r.ShouldUpdateActiveTask:
		return TaskKeep
	case r.ActiveTask == nil:
		return TaskClear
	default:
		return TaskReplace
	}
}

// Apply folds the reply's updates into a copy of state.
func (r AgentReply) Apply(state ChatState) ChatState {
	updated := state.Clone()
	switch r.TaskUpdate() {
	case TaskClear:
		updated.ActiveTask = nil
	case TaskReplace:
		task := r.ActiveTask.Clone()
		updated.ActiveTask = &task
	}

	if r.MemoryUpdate == nil {
		return updated
	}
	if r.MemoryUpdate.LastQuery != nil {
		memory := r.MemoryUpdate.LastQuery.Clone()
		updated.LastQuery = &memory
	}
	if r.MemoryUpdate.KnownCategories != nil {
		updated.KnownCategories = append([]string{}, r.MemoryUpdate.KnownCategories...)
	}
	switch {
	case r.MemoryUpdate.PendingClarification != nil:
		task := r.MemoryUpdate.PendingClarification.Clone()
		updated.PendingClarification = &task
	case r.MemoryUpdate.ClearPendingClarification:
		updated.PendingClarification = nil
	}
	return updated
}
