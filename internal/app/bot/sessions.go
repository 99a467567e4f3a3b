package bot

import (
	"sync"

	"github.com/kotche/taskbot/infrastructure/metrics"
	"github.com/kotche/taskbot/internal/model"
)

// step marks what the user is expected to send next.
type step int

const (
	stepTaskNote step = iota + 1
	stepParentSelect
	stepSubtaskNote
	stepTaskSelect
	stepEditOption
	stepSubtaskSelect
	stepSubtaskOption
	stepNewNote
	stepNewDeadline
	stepNewAssignee
)

// session is the per-user dialog state. It lives in memory only and is
// discarded on cancellation, completion or process restart.
type session struct {
	step    step
	task    string       // bound task note
	parent  model.TaskID // bound parent task id for sub-task steps
	subtask string       // bound sub-task note
}

type sessionStore struct {
	mu sync.Mutex
	m  map[model.UserID]session
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[model.UserID]session)}
}

func (s *sessionStore) get(userID model.UserID) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[userID]
	return sess, ok
}

func (s *sessionStore) put(userID model.UserID, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[userID]; !ok {
		metrics.ActiveSessionsGauge.Inc()
	}
	s.m[userID] = sess
}

func (s *sessionStore) clear(userID model.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[userID]; ok {
		metrics.ActiveSessionsGauge.Dec()
		delete(s.m, userID)
	}
}
