// Package flow runs the multi-step task creation conversation. Each owner
// has at most one session: a stage tag plus the draft collected so far, held
// in memory only. A process restart clears every session and the owner
// starts over.
package flow

import (
	"strings"
	"sync"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/dates"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/services"
)

type Stage int

const (
	StageAwaitingName Stage = iota
	StageAwaitingDescription
	StageAwaitingDueDate
	StageAwaitingPriority
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingName:
		return "awaiting_name"
	case StageAwaitingDescription:
		return "awaiting_description"
	case StageAwaitingDueDate:
		return "awaiting_due_date"
	case StageAwaitingPriority:
		return "awaiting_priority"
	}
	return "unknown"
}

// Draft holds the fields collected so far.
type Draft struct {
	Name        string
	Description string
	DueDate     string
}

type session struct {
	stage Stage
	draft Draft
}

// StepResult reports what a single event did to the session.
type StepResult struct {
	// Stage is the stage the session is in after the event.
	Stage Stage
	// Accepted is false when the event was rejected without a transition,
	// e.g. free text while a priority token was expected.
	Accepted bool
	// NormalizedDate echoes the canonical due date right after the
	// due-date step; the raw text is never stored or echoed.
	NormalizedDate string
	// Done is true once the flow finished and the session is gone.
	Done bool
	// TaskID is set when Done and creation succeeded.
	TaskID uint
	// Err carries the creation failure when Done and the task could not
	// be stored. The session is destroyed either way.
	Err error
}

// skipWords end the description step with "no description".
var skipWords = map[string]struct{}{
	"skip":  {},
	"/skip": {},
	"none":  {},
	"no":    {},
}

// Manager owns every live creation session, keyed by owner.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	tasks    services.TaskService
	now      func() time.Time
}

func NewManager(tasks services.TaskService) *Manager {
	return &Manager{
		sessions: make(map[int64]*session),
		tasks:    tasks,
		now:      time.Now,
	}
}

// WithClock substitutes the reference clock, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Start opens a fresh session for the owner, replacing any stale one.
func (m *Manager) Start(ownerID int64) Stage {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[ownerID] = &session{stage: StageAwaitingName}
	return StageAwaitingName
}

// Active reports the owner's current stage, if a session exists.
func (m *Manager) Active(ownerID int64) (Stage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[ownerID]
	if !ok {
		return 0, false
	}
	return s.stage, true
}

// Cancel destroys the owner's session from any stage without creating a
// task. It reports whether a session existed.
func (m *Manager) Cancel(ownerID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[ownerID]; !ok {
		return false
	}
	delete(m.sessions, ownerID)
	return true
}

// HandleText feeds one text event into the owner's session. The second
// return value is false when no session exists: the event is not part of
// this flow and the caller routes it elsewhere.
func (m *Manager) HandleText(ownerID int64, text string) (StepResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[ownerID]
	if !ok {
		return StepResult{}, false
	}

	switch s.stage {
	case StageAwaitingName:
		name := strings.TrimSpace(text)
		if name == "" {
			return StepResult{Stage: s.stage}, true
		}
		s.draft.Name = name
		s.stage = StageAwaitingDescription
		return StepResult{Stage: s.stage, Accepted: true}, true

	case StageAwaitingDescription:
		trimmed := strings.TrimSpace(text)
		if _, skip := skipWords[strings.ToLower(trimmed)]; !skip {
			s.draft.Description = trimmed
		}
		s.stage = StageAwaitingDueDate
		return StepResult{Stage: s.stage, Accepted: true}, true

	case StageAwaitingDueDate:
		normalized := dates.Normalize(text, m.now().UTC())
		s.draft.DueDate = normalized
		s.stage = StageAwaitingPriority
		return StepResult{Stage: s.stage, Accepted: true, NormalizedDate: normalized}, true

	case StageAwaitingPriority:
		priority, ok := matchPriority(text)
		if !ok {
			// Arbitrary text does not advance the flow.
			return StepResult{Stage: s.stage}, true
		}

		// The session ends here whether or not the create succeeds; a
		// failed create must not leave a stale session behind.
		delete(m.sessions, ownerID)

		// The draft's due date was normalized at the due-date step; it is
		// passed through the canonical field, never re-normalized.
		id, err := m.tasks.Create(ownerID, services.CreateTaskInput{
			Name:        s.draft.Name,
			Description: s.draft.Description,
			DueDate:     s.draft.DueDate,
			Priority:    priority,
		})
		return StepResult{Stage: s.stage, Accepted: true, Done: true, TaskID: id, Err: err}, true
	}

	return StepResult{Stage: s.stage}, true
}

func matchPriority(text string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "low":
		return models.PriorityLow, true
	case "medium":
		return models.PriorityMedium, true
	case "high":
		return models.PriorityHigh, true
	}
	return "", false
}
