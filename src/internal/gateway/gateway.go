package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexhub/caseflow/src/internal/model"
)

// FailureKind classifies what went wrong at the persistence boundary.
type FailureKind string

const (
	KindNotFound           FailureKind = "NOT_FOUND"
	KindPermissionDenied   FailureKind = "PERMISSION_DENIED"
	KindNetworkUnavailable FailureKind = "NETWORK_UNAVAILABLE"
	KindValidationFailed   FailureKind = "VALIDATION_FAILED"
	KindUnknown            FailureKind = "UNKNOWN"
)

// Failure is the only error type a Gateway returns. Every backend
// problem, whether network, permission or a missing record, is captured
// and converted; gateway calls never panic and never surface raw driver
// errors to callers.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string { return f.Message }

func NotFound(format string, args ...any) *Failure {
	return &Failure{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Failure {
	return &Failure{Kind: KindValidationFailed, Message: fmt.Sprintf(format, args...)}
}

// AsFailure converts an arbitrary error into a *Failure, passing
// existing failures through unchanged.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	kind := KindUnknown
	switch {
	case errors.Is(err, model.ErrCaseNotFound), errors.Is(err, model.ErrSubtaskNotFound):
		kind = KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = KindNetworkUnavailable
	}
	return &Failure{Kind: kind, Message: err.Error()}
}

// Gateway wraps the backing document store for case records and their
// nested subtasks. Direct pass-through calls, no retry or pooling logic;
// each method returns the payload or a *Failure, never both.
type Gateway interface {
	CreateCase(ctx context.Context, draft model.Case) (model.Case, *Failure)
	GetUserCases(ctx context.Context, userID, role string, limit, offset int) ([]model.Case, *Failure)
	GetCaseDetails(ctx context.Context, caseID string) (model.Case, *Failure)
	UpdateCase(ctx context.Context, caseID string, patch model.CasePatch) (model.Case, *Failure)
	UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus, note string) (model.TimelineEvent, *Failure)
	AddCaseDocument(ctx context.Context, caseID string, doc model.Document) (model.Document, *Failure)
	DeleteCase(ctx context.Context, caseID string) *Failure

	GetSubtasks(ctx context.Context, caseID string) ([]model.Subtask, *Failure)
	CreateSubtask(ctx context.Context, caseID string, draft model.Subtask) (model.Subtask, *Failure)
	UpdateSubtask(ctx context.Context, caseID, subtaskID string, patch model.SubtaskPatch) (model.Subtask, *Failure)
	ToggleSubtaskStatus(ctx context.Context, caseID, subtaskID string, next model.SubtaskStatus) (model.Subtask, *Failure)
	DeleteSubtask(ctx context.Context, caseID, subtaskID string) *Failure
}

// RoleLawyer selects the lawyer-side case listing; any other role lists
// by client id.
const RoleLawyer = "lawyer"

// DefaultPageSize bounds GetUserCases when the caller passes limit <= 0.
const DefaultPageSize = 50
