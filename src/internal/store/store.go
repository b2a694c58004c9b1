// Package store holds the normalized in-memory state tree for cases and
// subtasks. All mutation funnels through Dispatch; reads get deep-copied
// snapshots. Concurrent edits to the same entity are last-write-wins:
// there is no version check or conflict detection, callers that need
// deterministic merges must serialize themselves.
package store

import (
	"sync"

	"github.com/lexhub/caseflow/src/internal/model"
)

// State is the serializable state tree. Cases keeps server-returned
// order (last update descending); SubtasksByCase buckets are fetched
// independently per case.
type State struct {
	Cases          []model.Case               `json:"cases"`
	SelectedCase   *model.Case                `json:"selected_case"`
	SubtasksByCase map[string][]model.Subtask `json:"subtasks_by_case"`
	Loading        bool                       `json:"loading"`
	Error          string                     `json:"error,omitempty"`
	InFlight       map[ActionType]int         `json:"in_flight,omitempty"`
}

type Store struct {
	mu       sync.Mutex
	state    State
	inflight int

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

func New() *Store {
	return &Store{
		state: State{
			Cases:          []model.Case{},
			SubtasksByCase: make(map[string][]model.Subtask),
			InFlight:       make(map[ActionType]int),
		},
		subs: make(map[int]chan State),
	}
}

// Dispatch applies one lifecycle event. It is the single entry point for
// mutation; the reducer runs synchronously under the store lock, so
// readers always see a consistent snapshot.
func (s *Store) Dispatch(ev Event) {
	s.mu.Lock()
	s.reduce(ev)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ClearError resets the last rejection reason. Errors are never cleared
// automatically on a later success.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ClearSelectedCase drops the current selection.
func (s *Store) ClearSelectedCase() {
	s.mu.Lock()
	s.state.SelectedCase = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Subscribe registers for state change notifications. Snapshots arrive
// on a buffered channel; a subscriber that falls behind misses updates
// rather than blocking the dispatcher. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 16)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) notify(snap State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) snapshotLocked() State {
	out := State{
		Cases:          model.CloneCases(s.state.Cases),
		SubtasksByCase: make(map[string][]model.Subtask, len(s.state.SubtasksByCase)),
		Loading:        s.state.Loading,
		Error:          s.state.Error,
		InFlight:       make(map[ActionType]int, len(s.state.InFlight)),
	}
	if out.Cases == nil {
		out.Cases = []model.Case{}
	}
	if s.state.SelectedCase != nil {
		c := s.state.SelectedCase.Clone()
		out.SelectedCase = &c
	}
	for k, v := range s.state.SubtasksByCase {
		out.SubtasksByCase[k] = model.CloneSubtasks(v)
	}
	for k, v := range s.state.InFlight {
		if v > 0 {
			out.InFlight[k] = v
		}
	}
	return out
}

func (s *Store) reduce(ev Event) {
	switch ev.Phase {
	case PhasePending:
		s.inflight++
		s.state.InFlight[ev.Action]++
		s.state.Loading = true
		return
	case PhaseRejected:
		s.settle(ev.Action)
		s.state.Error = ev.Err
		return
	case PhaseFulfilled:
		s.settle(ev.Action)
	default:
		return
	}

	switch ev.Action {
	case ActionCreateCase:
		// The case list is rehydrated by the next fetch; create only
		// settles loading.

	case ActionGetUserCases:
		s.state.Cases = model.CloneCases(ev.Cases)
		if s.state.Cases == nil {
			s.state.Cases = []model.Case{}
		}

	case ActionGetCaseDetails:
		if ev.Case != nil {
			c := ev.Case.Clone()
			s.state.SelectedCase = &c
		}

	case ActionUpdateCase:
		if ev.Case != nil {
			s.replaceCase(*ev.Case)
		}

	case ActionUpdateCaseStatus:
		s.applyStatus(ev.CaseID, ev.Status, ev.Timeline)

	case ActionAddCaseDocument:
		s.appendDocument(ev.CaseID, ev.Document)

	case ActionDeleteCase:
		s.removeCase(ev.CaseID)

	case ActionFetchSubtasks:
		list := model.CloneSubtasks(ev.Subtasks)
		if list == nil {
			list = []model.Subtask{}
		}
		s.state.SubtasksByCase[ev.CaseID] = list

	case ActionAddSubtask:
		if ev.Subtask != nil {
			bucket := s.state.SubtasksByCase[ev.CaseID]
			s.state.SubtasksByCase[ev.CaseID] = append([]model.Subtask{ev.Subtask.Clone()}, bucket...)
		}

	case ActionUpdateSubtask, ActionToggleSubtaskStatus:
		if ev.Subtask != nil {
			s.replaceSubtask(ev.CaseID, *ev.Subtask)
		}

	case ActionDeleteSubtask:
		s.removeSubtask(ev.CaseID, ev.SubtaskID)
	}
}

func (s *Store) settle(action ActionType) {
	if s.inflight > 0 {
		s.inflight--
	}
	if s.state.InFlight[action] > 0 {
		s.state.InFlight[action]--
	}
	if s.state.InFlight[action] == 0 {
		delete(s.state.InFlight, action)
	}
	s.state.Loading = s.inflight > 0
}

func (s *Store) replaceCase(c model.Case) {
	for i := range s.state.Cases {
		if s.state.Cases[i].ID == c.ID {
			s.state.Cases[i] = c.Clone()
			break
		}
	}
	if s.state.SelectedCase != nil && s.state.SelectedCase.ID == c.ID {
		cp := c.Clone()
		s.state.SelectedCase = &cp
	}
}

func (s *Store) applyStatus(caseID string, status model.CaseStatus, ev *model.TimelineEvent) {
	apply := func(c *model.Case) {
		c.Status = status
		if ev != nil {
			c.Timeline = append(c.Timeline, *ev)
		}
	}
	for i := range s.state.Cases {
		if s.state.Cases[i].ID == caseID {
			apply(&s.state.Cases[i])
			break
		}
	}
	if s.state.SelectedCase != nil && s.state.SelectedCase.ID == caseID {
		apply(s.state.SelectedCase)
	}
}

func (s *Store) appendDocument(caseID string, doc *model.Document) {
	if doc == nil {
		return
	}
	for i := range s.state.Cases {
		if s.state.Cases[i].ID == caseID {
			s.state.Cases[i].Documents = append(s.state.Cases[i].Documents, *doc)
			break
		}
	}
	if s.state.SelectedCase != nil && s.state.SelectedCase.ID == caseID {
		s.state.SelectedCase.Documents = append(s.state.SelectedCase.Documents, *doc)
	}
}

func (s *Store) removeCase(caseID string) {
	for i := range s.state.Cases {
		if s.state.Cases[i].ID == caseID {
			s.state.Cases = append(s.state.Cases[:i:i], s.state.Cases[i+1:]...)
			break
		}
	}
	if s.state.SelectedCase != nil && s.state.SelectedCase.ID == caseID {
		s.state.SelectedCase = nil
	}
	delete(s.state.SubtasksByCase, caseID)
}

func (s *Store) replaceSubtask(caseID string, st model.Subtask) {
	bucket := s.state.SubtasksByCase[caseID]
	for i := range bucket {
		if bucket[i].ID == st.ID {
			bucket[i] = st.Clone()
			return
		}
	}
}

func (s *Store) removeSubtask(caseID, subtaskID string) {
	bucket := s.state.SubtasksByCase[caseID]
	for i := range bucket {
		if bucket[i].ID == subtaskID {
			s.state.SubtasksByCase[caseID] = append(bucket[:i:i], bucket[i+1:]...)
			return
		}
	}
}
