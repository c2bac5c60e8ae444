// Package editor tracks action plan edit sessions. A session moves
//
//	Closed -> Editing -> Saving -> Saved -> Closed
//	                            -> Failed -> Saving ...
//
// and is keyed by request number, so reloading the record set (which
// renumbers ids) never points a session at another work order.
package editor

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"workOrders/internal/dashboard/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type State int

const (
	Closed State = iota
	Editing
	Saving
	Saved
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	default:
		return "closed"
	}
}

type CounterLevel string

const (
	LevelOk      CounterLevel = "ok"
	LevelWarning CounterLevel = "warning"
	LevelDanger  CounterLevel = "danger"
)

const (
	warningChars = 500
	dangerChars  = 1000
)

type ValidationError struct {
	text string
}

func (e *ValidationError) Error() string {
	return e.text
}

func NewValidationError(text string) *ValidationError {
	return &ValidationError{text: text}
}

var (
	ErrNoSession     = errors.New("no open editor for this work order")
	ErrSaveInFlight  = errors.New("action plan is already being saved")
	errEmptyPlanText = "Please enter an action plan"
)

// Saver persists a trimmed action plan for a request.
type Saver func(ctx context.Context, requestNo, actionPlan string) error

type Session struct {
	Id          string `json:"id"`
	RequestNo   string `json:"requestNo"`
	Hospital    string `json:"hospital"`
	RequestDate string `json:"requestDate"`
	Services    string `json:"services"`
	Buffer      string `json:"buffer"`
	State       State  `json:"-"`
	Err         error  `json:"-"`
}

// CharCount counts characters, not bytes.
func (s Session) CharCount() int {
	return utf8.RuneCountInString(s.Buffer)
}

func (s Session) CounterLevel() CounterLevel {
	n := s.CharCount()
	switch {
	case n > dangerChars:
		return LevelDanger
	case n > warningChars:
		return LevelWarning
	default:
		return LevelOk
	}
}

func (s Session) IsOpen() bool {
	return s.State != Closed && s.State != Saved
}

type Editor struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func New() *Editor {
	return &Editor{sessions: make(map[string]*Session)}
}

// Open starts editing wo with its current action plan in the buffer. An
// already open session is restarted unless it is being saved.
func (e *Editor) Open(wo models.WorkOrder) Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[wo.RequestNo]; ok && s.State == Saving {
		return *s
	}
	s := &Session{
		Id:          uuid.NewString(),
		RequestNo:   wo.RequestNo,
		Hospital:    wo.Hospital,
		RequestDate: wo.RequestDate,
		Services:    wo.Services,
		Buffer:      wo.ActionPlan,
		State:       Editing,
	}
	e.sessions[wo.RequestNo] = s
	return *s
}

func (e *Editor) Get(requestNo string) (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[requestNo]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Sessions lists the open sessions ordered by request number.
func (e *Editor) Sessions() []Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestNo < out[j].RequestNo })
	return out
}

func (e *Editor) SetBuffer(requestNo, text string) (Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[requestNo]
	if !ok {
		return Session{}, ErrNoSession
	}
	if s.State == Saving {
		return *s, ErrSaveInFlight
	}
	s.Buffer = text
	return *s, nil
}

// Save validates the buffer and hands the trimmed text to save. On success
// the session is closed, on failure it stays open in the Failed state.
func (e *Editor) Save(ctx context.Context, requestNo string, save Saver) (Session, error) {
	e.mu.Lock()
	s, ok := e.sessions[requestNo]
	if !ok {
		e.mu.Unlock()
		return Session{}, ErrNoSession
	}
	if s.State == Saving {
		snapshot := *s
		e.mu.Unlock()
		return snapshot, ErrSaveInFlight
	}
	plan := strings.TrimSpace(s.Buffer)
	if plan == "" {
		snapshot := *s
		e.mu.Unlock()
		return snapshot, NewValidationError(errEmptyPlanText)
	}
	s.State = Saving
	s.Err = nil
	e.mu.Unlock()

	err := save(ctx, requestNo, plan)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		s.State = Failed
		s.Err = err
		return *s, err
	}
	s.State = Saved
	s.Buffer = plan
	if e.sessions[requestNo] == s {
		delete(e.sessions, requestNo)
	}
	return *s, nil
}

// Close discards the session and its buffer.
func (e *Editor) Close(requestNo string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[requestNo]; ok && s.State != Saving {
		s.State = Closed
		delete(e.sessions, requestNo)
	}
}
