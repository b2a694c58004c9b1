// Package actions is the asynchronous action layer: each operation
// dispatches its pending event synchronously, runs the gateway call in
// its own goroutine, then dispatches exactly one terminal event,
// fulfilled with the payload or rejected with the failure message, and
// resolves the returned handle. Any number of actions may be in flight
// at once; none blocks another, and a failed action never touches state
// for unrelated entities.
package actions

import (
	"context"

	"go.uber.org/zap"

	"github.com/lexhub/caseflow/src/internal/gateway"
	"github.com/lexhub/caseflow/src/internal/model"
	"github.com/lexhub/caseflow/src/internal/store"
)

type Actions struct {
	gw    gateway.Gateway
	store *store.Store
	log   *zap.Logger
}

func New(gw gateway.Gateway, st *store.Store, logger *zap.Logger) *Actions {
	return &Actions{gw: gw, store: st, log: logger}
}

// Store exposes the state tree for selector reads and subscriptions.
func (a *Actions) Store() *store.Store { return a.store }

// run drives one action through its lifecycle. The pending event fires
// before run returns; the terminal event fires from the goroutine.
func run[T any](a *Actions, pending store.Event, call func() (T, *gateway.Failure), fulfilled func(T) store.Event) *Handle[T] {
	h := newHandle[T]()
	pending.Phase = store.PhasePending
	a.store.Dispatch(pending)

	go func() {
		v, fail := call()
		if fail != nil {
			a.log.Warn("action rejected",
				zap.String("action", string(pending.Action)),
				zap.String("kind", string(fail.Kind)),
				zap.String("reason", fail.Message))
			a.store.Dispatch(store.Event{
				Action:    pending.Action,
				Phase:     store.PhaseRejected,
				CaseID:    pending.CaseID,
				SubtaskID: pending.SubtaskID,
				Err:       fail.Message,
			})
			h.reject(fail)
			return
		}
		ev := fulfilled(v)
		ev.Action = pending.Action
		ev.Phase = store.PhaseFulfilled
		a.store.Dispatch(ev)
		h.resolve(v)
	}()
	return h
}

func (a *Actions) CreateCase(ctx context.Context, draft model.Case) *Handle[model.Case] {
	return run(a,
		store.Event{Action: store.ActionCreateCase},
		func() (model.Case, *gateway.Failure) { return a.gw.CreateCase(ctx, draft) },
		func(c model.Case) store.Event { return store.Event{Case: &c, CaseID: c.ID} },
	)
}

type UserCasesQuery struct {
	UserID string
	Role   string
	Limit  int
	Offset int
}

func (a *Actions) GetUserCases(ctx context.Context, q UserCasesQuery) *Handle[[]model.Case] {
	return run(a,
		store.Event{Action: store.ActionGetUserCases},
		func() ([]model.Case, *gateway.Failure) {
			return a.gw.GetUserCases(ctx, q.UserID, q.Role, q.Limit, q.Offset)
		},
		func(cs []model.Case) store.Event { return store.Event{Cases: cs} },
	)
}

func (a *Actions) GetCaseDetails(ctx context.Context, caseID string) *Handle[model.Case] {
	return run(a,
		store.Event{Action: store.ActionGetCaseDetails, CaseID: caseID},
		func() (model.Case, *gateway.Failure) { return a.gw.GetCaseDetails(ctx, caseID) },
		func(c model.Case) store.Event { return store.Event{Case: &c, CaseID: caseID} },
	)
}

func (a *Actions) UpdateCase(ctx context.Context, caseID string, patch model.CasePatch) *Handle[model.Case] {
	return run(a,
		store.Event{Action: store.ActionUpdateCase, CaseID: caseID},
		func() (model.Case, *gateway.Failure) { return a.gw.UpdateCase(ctx, caseID, patch) },
		func(c model.Case) store.Event { return store.Event{Case: &c, CaseID: caseID} },
	)
}

func (a *Actions) UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus, note string) *Handle[model.TimelineEvent] {
	return run(a,
		store.Event{Action: store.ActionUpdateCaseStatus, CaseID: caseID},
		func() (model.TimelineEvent, *gateway.Failure) {
			return a.gw.UpdateCaseStatus(ctx, caseID, status, note)
		},
		func(ev model.TimelineEvent) store.Event {
			return store.Event{CaseID: caseID, Status: status, Timeline: &ev}
		},
	)
}

func (a *Actions) AddCaseDocument(ctx context.Context, caseID string, doc model.Document) *Handle[model.Document] {
	return run(a,
		store.Event{Action: store.ActionAddCaseDocument, CaseID: caseID},
		func() (model.Document, *gateway.Failure) { return a.gw.AddCaseDocument(ctx, caseID, doc) },
		func(d model.Document) store.Event { return store.Event{CaseID: caseID, Document: &d} },
	)
}

func (a *Actions) DeleteCase(ctx context.Context, caseID string) *Handle[struct{}] {
	return run(a,
		store.Event{Action: store.ActionDeleteCase, CaseID: caseID},
		func() (struct{}, *gateway.Failure) { return struct{}{}, a.gw.DeleteCase(ctx, caseID) },
		func(struct{}) store.Event { return store.Event{CaseID: caseID} },
	)
}

func (a *Actions) FetchSubtasks(ctx context.Context, caseID string) *Handle[[]model.Subtask] {
	return run(a,
		store.Event{Action: store.ActionFetchSubtasks, CaseID: caseID},
		func() ([]model.Subtask, *gateway.Failure) { return a.gw.GetSubtasks(ctx, caseID) },
		func(ss []model.Subtask) store.Event { return store.Event{CaseID: caseID, Subtasks: ss} },
	)
}

func (a *Actions) AddSubtask(ctx context.Context, caseID string, draft model.Subtask) *Handle[model.Subtask] {
	return run(a,
		store.Event{Action: store.ActionAddSubtask, CaseID: caseID},
		func() (model.Subtask, *gateway.Failure) { return a.gw.CreateSubtask(ctx, caseID, draft) },
		func(s model.Subtask) store.Event {
			return store.Event{CaseID: caseID, SubtaskID: s.ID, Subtask: &s}
		},
	)
}

func (a *Actions) UpdateSubtask(ctx context.Context, caseID, subtaskID string, patch model.SubtaskPatch) *Handle[model.Subtask] {
	return run(a,
		store.Event{Action: store.ActionUpdateSubtask, CaseID: caseID, SubtaskID: subtaskID},
		func() (model.Subtask, *gateway.Failure) {
			return a.gw.UpdateSubtask(ctx, caseID, subtaskID, patch)
		},
		func(s model.Subtask) store.Event {
			return store.Event{CaseID: caseID, SubtaskID: subtaskID, Subtask: &s}
		},
	)
}

func (a *Actions) ToggleSubtaskStatus(ctx context.Context, caseID, subtaskID string, next model.SubtaskStatus) *Handle[model.Subtask] {
	return run(a,
		store.Event{Action: store.ActionToggleSubtaskStatus, CaseID: caseID, SubtaskID: subtaskID},
		func() (model.Subtask, *gateway.Failure) {
			return a.gw.ToggleSubtaskStatus(ctx, caseID, subtaskID, next)
		},
		func(s model.Subtask) store.Event {
			return store.Event{CaseID: caseID, SubtaskID: subtaskID, Subtask: &s}
		},
	)
}

func (a *Actions) DeleteSubtask(ctx context.Context, caseID, subtaskID string) *Handle[struct{}] {
	return run(a,
		store.Event{Action: store.ActionDeleteSubtask, CaseID: caseID, SubtaskID: subtaskID},
		func() (struct{}, *gateway.Failure) {
			return struct{}{}, a.gw.DeleteSubtask(ctx, caseID, subtaskID)
		},
		func(struct{}) store.Event { return store.Event{CaseID: caseID, SubtaskID: subtaskID} },
	)
}
