package store

import "github.com/lexhub/caseflow/src/internal/model"

// ActionType names a tracked asynchronous operation.
type ActionType string

const (
	ActionCreateCase          ActionType = "cases/create"
	ActionGetUserCases        ActionType = "cases/list"
	ActionGetCaseDetails      ActionType = "cases/get"
	ActionUpdateCase          ActionType = "cases/update"
	ActionUpdateCaseStatus    ActionType = "cases/updateStatus"
	ActionAddCaseDocument     ActionType = "cases/addDocument"
	ActionDeleteCase          ActionType = "cases/delete"
	ActionFetchSubtasks       ActionType = "subtasks/fetch"
	ActionAddSubtask          ActionType = "subtasks/add"
	ActionUpdateSubtask       ActionType = "subtasks/update"
	ActionToggleSubtaskStatus ActionType = "subtasks/toggle"
	ActionDeleteSubtask       ActionType = "subtasks/delete"
)

// Phase is the lifecycle stage of an action: pending fires synchronously
// at invocation, then exactly one of fulfilled or rejected follows.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// Event is the only input the reducer accepts. Payload fields are set
// per action; unused ones stay zero.
type Event struct {
	Action ActionType
	Phase  Phase

	CaseID    string
	SubtaskID string

	Case     *model.Case
	Cases    []model.Case
	Subtask  *model.Subtask
	Subtasks []model.Subtask
	Document *model.Document
	Timeline *model.TimelineEvent
	Status   model.CaseStatus

	Err string
}
