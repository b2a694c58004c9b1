package store

import "github.com/lexhub/caseflow/src/internal/model"

// Selectors are pure projections over a State snapshot. They never
// mutate and never return nil where a sequence is expected.

func SelectCases(s State) []model.Case {
	if s.Cases == nil {
		return []model.Case{}
	}
	return s.Cases
}

func SelectSelectedCase(s State) *model.Case {
	return s.SelectedCase
}

// SelectSubtasks returns the subtask bucket for a case, or an empty
// sequence for an unknown case id, never nil.
func SelectSubtasks(s State, caseID string) []model.Subtask {
	if list, ok := s.SubtasksByCase[caseID]; ok && list != nil {
		return list
	}
	return []model.Subtask{}
}

// SelectLoading reports whether any tracked action is in flight. It is a
// coarse OR across all actions; use SelectInFlight for per-action state.
func SelectLoading(s State) bool {
	return s.Loading
}

// SelectError returns the last rejection reason, empty until a failure
// occurs and until explicitly cleared.
func SelectError(s State) string {
	return s.Error
}

// SelectInFlight returns how many invocations of one action are
// currently outstanding.
func SelectInFlight(s State, action ActionType) int {
	return s.InFlight[action]
}
