package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhub/caseflow/src/internal/model"
)

func seedCases(s *Store, cases ...model.Case) {
	s.Dispatch(Event{Action: ActionGetUserCases, Phase: PhasePending})
	s.Dispatch(Event{Action: ActionGetUserCases, Phase: PhaseFulfilled, Cases: cases})
}

func seedSelected(s *Store, c model.Case) {
	s.Dispatch(Event{Action: ActionGetCaseDetails, Phase: PhasePending, CaseID: c.ID})
	s.Dispatch(Event{Action: ActionGetCaseDetails, Phase: PhaseFulfilled, CaseID: c.ID, Case: &c})
}

func seedSubtasks(s *Store, caseID string, subtasks ...model.Subtask) {
	s.Dispatch(Event{Action: ActionFetchSubtasks, Phase: PhasePending, CaseID: caseID})
	s.Dispatch(Event{Action: ActionFetchSubtasks, Phase: PhaseFulfilled, CaseID: caseID, Subtasks: subtasks})
}

func TestLoadingIsCoarseORAcrossActions(t *testing.T) {
	s := New()

	s.Dispatch(Event{Action: ActionGetUserCases, Phase: PhasePending})
	s.Dispatch(Event{Action: ActionFetchSubtasks, Phase: PhasePending, CaseID: "c1"})
	assert.True(t, SelectLoading(s.Snapshot()))

	s.Dispatch(Event{Action: ActionGetUserCases, Phase: PhaseFulfilled, Cases: nil})
	assert.True(t, SelectLoading(s.Snapshot()), "one action still in flight")
	assert.Equal(t, 1, SelectInFlight(s.Snapshot(), ActionFetchSubtasks))

	s.Dispatch(Event{Action: ActionFetchSubtasks, Phase: PhaseFulfilled, CaseID: "c1"})
	assert.False(t, SelectLoading(s.Snapshot()))
	assert.Equal(t, 0, SelectInFlight(s.Snapshot(), ActionFetchSubtasks))
}

func TestErrorPersistsUntilCleared(t *testing.T) {
	s := New()

	s.Dispatch(Event{Action: ActionGetCaseDetails, Phase: PhasePending})
	s.Dispatch(Event{Action: ActionGetCaseDetails, Phase: PhaseRejected, Err: "case c9 not found"})
	assert.Equal(t, "case c9 not found", SelectError(s.Snapshot()))

	// A later success does not clear the error automatically.
	seedCases(s, model.Case{ID: "c1", Title: "Merger Review"})
	assert.Equal(t, "case c9 not found", SelectError(s.Snapshot()))
	assert.Len(t, SelectCases(s.Snapshot()), 1)

	s.ClearError()
	assert.Empty(t, SelectError(s.Snapshot()))
}

func TestGetUserCasesReplacesList(t *testing.T) {
	s := New()
	seedCases(s, model.Case{ID: "c1"}, model.Case{ID: "c2"})

	snap := s.Snapshot()
	require.Len(t, snap.Cases, 2)
	assert.Equal(t, "c1", snap.Cases[0].ID)
}

func TestStatusAndTimelineApplyTogether(t *testing.T) {
	s := New()
	c := model.Case{ID: "c1", Status: model.CaseStatusActive}
	seedCases(s, c)
	seedSelected(s, c)

	ev := model.TimelineEvent{ID: "t1", Status: model.CaseStatusCompleted, Note: "done", CreatedAt: time.Now()}
	s.Dispatch(Event{Action: ActionUpdateCaseStatus, Phase: PhasePending, CaseID: "c1"})
	s.Dispatch(Event{
		Action: ActionUpdateCaseStatus, Phase: PhaseFulfilled,
		CaseID: "c1", Status: model.CaseStatusCompleted, Timeline: &ev,
	})

	snap := s.Snapshot()
	require.Len(t, snap.Cases, 1)
	assert.Equal(t, model.CaseStatusCompleted, snap.Cases[0].Status)
	require.Len(t, snap.Cases[0].Timeline, 1)
	assert.Equal(t, "done", snap.Cases[0].Timeline[0].Note)

	require.NotNil(t, snap.SelectedCase)
	assert.Equal(t, model.CaseStatusCompleted, snap.SelectedCase.Status)
	require.Len(t, snap.SelectedCase.Timeline, 1)
}

func TestAddDocumentAppendsInBothViews(t *testing.T) {
	s := New()
	c := model.Case{ID: "c1"}
	seedCases(s, c)
	seedSelected(s, c)

	doc := model.Document{ID: "d1", Name: "MOU.pdf"}
	s.Dispatch(Event{Action: ActionAddCaseDocument, Phase: PhasePending, CaseID: "c1"})
	s.Dispatch(Event{Action: ActionAddCaseDocument, Phase: PhaseFulfilled, CaseID: "c1", Document: &doc})

	snap := s.Snapshot()
	require.Len(t, snap.Cases[0].Documents, 1)
	require.NotNil(t, snap.SelectedCase)
	require.Len(t, snap.SelectedCase.Documents, 1)
	assert.Equal(t, "MOU.pdf", snap.SelectedCase.Documents[0].Name)
}

func TestDeleteCaseCleansAllViews(t *testing.T) {
	s := New()
	seedCases(s, model.Case{ID: "c1"}, model.Case{ID: "c2"})
	seedSelected(s, model.Case{ID: "c1"})
	seedSubtasks(s, "c1", model.Subtask{ID: "s1", CaseID: "c1"})

	s.Dispatch(Event{Action: ActionDeleteCase, Phase: PhasePending, CaseID: "c1"})
	s.Dispatch(Event{Action: ActionDeleteCase, Phase: PhaseFulfilled, CaseID: "c1"})

	snap := s.Snapshot()
	require.Len(t, snap.Cases, 1)
	assert.Equal(t, "c2", snap.Cases[0].ID)
	assert.Nil(t, snap.SelectedCase)
	assert.Empty(t, SelectSubtasks(snap, "c1"))
}

func TestAddSubtaskPrepends(t *testing.T) {
	s := New()
	seedSubtasks(s, "c1", model.Subtask{ID: "s1", Title: "File petition"})

	st := model.Subtask{ID: "s2", Title: "Draft MOU", Status: model.SubtaskStatusPending}
	s.Dispatch(Event{Action: ActionAddSubtask, Phase: PhasePending, CaseID: "c1"})
	s.Dispatch(Event{Action: ActionAddSubtask, Phase: PhaseFulfilled, CaseID: "c1", SubtaskID: "s2", Subtask: &st})

	list := SelectSubtasks(s.Snapshot(), "c1")
	require.Len(t, list, 2)
	assert.Equal(t, "Draft MOU", list[0].Title)
	assert.Equal(t, model.SubtaskStatusPending, list[0].Status)
}

func TestDeleteSubtaskRemovesExactlyOneOrderPreserved(t *testing.T) {
	s := New()
	seedSubtasks(s, "c1",
		model.Subtask{ID: "s1"}, model.Subtask{ID: "s2"}, model.Subtask{ID: "s3"})

	s.Dispatch(Event{Action: ActionDeleteSubtask, Phase: PhasePending, CaseID: "c1", SubtaskID: "s2"})
	s.Dispatch(Event{Action: ActionDeleteSubtask, Phase: PhaseFulfilled, CaseID: "c1", SubtaskID: "s2"})

	list := SelectSubtasks(s.Snapshot(), "c1")
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, "s3", list[1].ID)
}

func TestToggleTwiceRestoresStatus(t *testing.T) {
	s := New()
	seedSubtasks(s, "c1", model.Subtask{ID: "s1", Status: model.SubtaskStatusPending})

	now := time.Now()
	completed := model.Subtask{ID: "s1", Status: model.SubtaskStatusCompleted, CompletedAt: &now}
	s.Dispatch(Event{Action: ActionToggleSubtaskStatus, Phase: PhasePending, CaseID: "c1", SubtaskID: "s1"})
	s.Dispatch(Event{Action: ActionToggleSubtaskStatus, Phase: PhaseFulfilled, CaseID: "c1", SubtaskID: "s1", Subtask: &completed})

	list := SelectSubtasks(s.Snapshot(), "c1")
	require.Len(t, list, 1)
	assert.Equal(t, model.SubtaskStatusCompleted, list[0].Status)
	assert.NotNil(t, list[0].CompletedAt)

	pending := model.Subtask{ID: "s1", Status: model.SubtaskStatusPending}
	s.Dispatch(Event{Action: ActionToggleSubtaskStatus, Phase: PhasePending, CaseID: "c1", SubtaskID: "s1"})
	s.Dispatch(Event{Action: ActionToggleSubtaskStatus, Phase: PhaseFulfilled, CaseID: "c1", SubtaskID: "s1", Subtask: &pending})

	list = SelectSubtasks(s.Snapshot(), "c1")
	assert.Equal(t, model.SubtaskStatusPending, list[0].Status)
	assert.Nil(t, list[0].CompletedAt)
}

func TestSelectSubtasksUnknownCaseIsEmptyNotNil(t *testing.T) {
	s := New()
	list := SelectSubtasks(s.Snapshot(), "nonexistent-id")
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSnapshotIsolation(t *testing.T) {
	s := New()
	seedCases(s, model.Case{ID: "c1", Timeline: []model.TimelineEvent{{ID: "t1"}}})

	snap := s.Snapshot()
	snap.Cases[0].Title = "mutated"
	snap.Cases[0].Timeline[0].Note = "mutated"

	fresh := s.Snapshot()
	assert.Empty(t, fresh.Cases[0].Title)
	assert.Empty(t, fresh.Cases[0].Timeline[0].Note)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s := New()
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	seedCases(s, model.Case{ID: "c1"})

	var last State
	for i := 0; i < 2; i++ {
		select {
		case last = <-updates:
		case <-time.After(time.Second):
			t.Fatal("no state update received")
		}
	}
	assert.Len(t, last.Cases, 1)
}

func TestClearSelectedCase(t *testing.T) {
	s := New()
	seedSelected(s, model.Case{ID: "c1"})
	require.NotNil(t, SelectSelectedCase(s.Snapshot()))

	s.ClearSelectedCase()
	assert.Nil(t, SelectSelectedCase(s.Snapshot()))
}

func TestRejectedSettlesLoadingWithoutTouchingData(t *testing.T) {
	s := New()
	seedCases(s, model.Case{ID: "c1"})

	s.Dispatch(Event{Action: ActionGetCaseDetails, Phase: PhasePending, CaseID: "gone"})
	s.Dispatch(Event{Action: ActionGetCaseDetails, Phase: PhaseRejected, CaseID: "gone", Err: "case gone not found"})

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Cases, 1, "unrelated state untouched by failure")
	assert.Equal(t, "case gone not found", snap.Error)
}
