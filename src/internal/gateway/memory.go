package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexhub/caseflow/src/internal/model"
)

// Memory is a map-backed gateway with the same contract as Postgres.
// It serves handler and property tests and doubles as a credential-less
// dev backend (STORAGE_BACKEND=memory).
type Memory struct {
	mu       sync.RWMutex
	cases    map[string]model.Case
	subtasks map[string][]model.Subtask
}

func NewMemory() *Memory {
	return &Memory{
		cases:    make(map[string]model.Case),
		subtasks: make(map[string][]model.Subtask),
	}
}

func (g *Memory) CreateCase(ctx context.Context, draft model.Case) (model.Case, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Case{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	c := draft.Clone()
	c.ID = uuid.New().String()
	c.Status = model.CaseStatusActive
	c.Progress = 0
	c.Team = model.NormalizeTeam(mustJSON(draft.Team))
	c.Documents = []model.Document{}
	c.Timeline = []model.TimelineEvent{}
	c.Subtasks = nil
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Priority == "" {
		c.Priority = model.PriorityMedium
	}
	if c.Value.Currency == "" {
		c.Value.Currency = "INR"
	}

	g.cases[c.ID] = c
	g.subtasks[c.ID] = []model.Subtask{}
	return c.Clone(), nil
}

func (g *Memory) GetUserCases(ctx context.Context, userID, role string, limit, offset int) ([]model.Case, *Failure) {
	if err := ctx.Err(); err != nil {
		return nil, AsFailure(err)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	matched := make([]model.Case, 0)
	for _, c := range g.cases {
		if role == RoleLawyer && c.LawyerID == userID {
			matched = append(matched, c.Clone())
		} else if role != RoleLawyer && c.ClientID == userID {
			matched = append(matched, c.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	if offset >= len(matched) {
		return []model.Case{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (g *Memory) GetCaseDetails(ctx context.Context, caseID string) (model.Case, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Case{}, AsFailure(err)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.cases[caseID]
	if !ok {
		return model.Case{}, NotFound("case %s not found", caseID)
	}
	out := c.Clone()
	out.Subtasks = model.CloneSubtasks(g.subtasks[caseID])
	return out, nil
}

func (g *Memory) UpdateCase(ctx context.Context, caseID string, patch model.CasePatch) (model.Case, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Case{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.cases[caseID]
	if !ok {
		return model.Case{}, NotFound("case %s not found", caseID)
	}

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.ClientName != nil {
		c.ClientName = *patch.ClientName
	}
	if patch.Value != nil {
		c.Value = *patch.Value
	}
	if patch.Priority != nil {
		c.Priority = *patch.Priority
	}
	if patch.CaseType != nil {
		c.CaseType = *patch.CaseType
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Progress != nil {
		c.Progress = model.ClampProgress(*patch.Progress)
	}
	if patch.NextHearing != nil {
		c.NextHearing = *patch.NextHearing
	}
	if patch.Team != nil {
		c.Team = model.NormalizeTeam(mustJSON(*patch.Team))
	}
	c.UpdatedAt = time.Now().UTC()

	g.cases[caseID] = c
	return c.Clone(), nil
}

func (g *Memory) UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus, note string) (model.TimelineEvent, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.TimelineEvent{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.cases[caseID]
	if !ok {
		return model.TimelineEvent{}, NotFound("case %s not found", caseID)
	}

	ev := model.TimelineEvent{
		ID:        uuid.New().String(),
		Status:    status,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	c.Status = status
	c.Timeline = append(c.Timeline, ev)
	c.UpdatedAt = ev.CreatedAt
	g.cases[caseID] = c
	return ev, nil
}

func (g *Memory) AddCaseDocument(ctx context.Context, caseID string, doc model.Document) (model.Document, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Document{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.cases[caseID]
	if !ok {
		return model.Document{}, NotFound("case %s not found", caseID)
	}

	doc.ID = uuid.New().String()
	doc.UploadedAt = time.Now().UTC()
	c.Documents = append(c.Documents, doc)
	c.UpdatedAt = doc.UploadedAt
	g.cases[caseID] = c
	return doc, nil
}

func (g *Memory) DeleteCase(ctx context.Context, caseID string) *Failure {
	if err := ctx.Err(); err != nil {
		return AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.cases[caseID]; !ok {
		return NotFound("case %s not found", caseID)
	}
	delete(g.cases, caseID)
	delete(g.subtasks, caseID)
	return nil
}

func (g *Memory) GetSubtasks(ctx context.Context, caseID string) ([]model.Subtask, *Failure) {
	if err := ctx.Err(); err != nil {
		return nil, AsFailure(err)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	list := model.CloneSubtasks(g.subtasks[caseID])
	if list == nil {
		list = []model.Subtask{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (g *Memory) CreateSubtask(ctx context.Context, caseID string, draft model.Subtask) (model.Subtask, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Subtask{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.cases[caseID]; !ok {
		return model.Subtask{}, NotFound("case %s not found", caseID)
	}

	s := draft.Clone()
	s.ID = uuid.New().String()
	s.CaseID = caseID
	s.CreatedAt = time.Now().UTC()
	if s.Status == "" {
		s.Status = model.SubtaskStatusPending
	}
	if s.Priority == "" {
		s.Priority = model.PriorityMedium
	}
	s.CompletedAt = nil
	if s.Status == model.SubtaskStatusCompleted {
		t := s.CreatedAt
		s.CompletedAt = &t
	}

	g.subtasks[caseID] = append(g.subtasks[caseID], s)
	return s.Clone(), nil
}

func (g *Memory) UpdateSubtask(ctx context.Context, caseID, subtaskID string, patch model.SubtaskPatch) (model.Subtask, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Subtask{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	list := g.subtasks[caseID]
	for i := range list {
		if list[i].ID != subtaskID {
			continue
		}
		s := &list[i]
		if patch.Title != nil {
			s.Title = *patch.Title
		}
		if patch.Description != nil {
			s.Description = *patch.Description
		}
		if patch.Assignee != nil {
			s.Assignee = *patch.Assignee
		}
		if patch.DueDate != nil {
			s.DueDate = *patch.DueDate
		}
		if patch.Priority != nil {
			s.Priority = *patch.Priority
		}
		if patch.Category != nil {
			s.Category = *patch.Category
		}
		if patch.Status != nil {
			setSubtaskStatus(s, *patch.Status)
		}
		return s.Clone(), nil
	}
	return model.Subtask{}, NotFound("subtask %s not found in case %s", subtaskID, caseID)
}

func (g *Memory) ToggleSubtaskStatus(ctx context.Context, caseID, subtaskID string, next model.SubtaskStatus) (model.Subtask, *Failure) {
	if err := ctx.Err(); err != nil {
		return model.Subtask{}, AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	list := g.subtasks[caseID]
	for i := range list {
		if list[i].ID == subtaskID {
			setSubtaskStatus(&list[i], next)
			return list[i].Clone(), nil
		}
	}
	return model.Subtask{}, NotFound("subtask %s not found in case %s", subtaskID, caseID)
}

func (g *Memory) DeleteSubtask(ctx context.Context, caseID, subtaskID string) *Failure {
	if err := ctx.Err(); err != nil {
		return AsFailure(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	list := g.subtasks[caseID]
	for i := range list {
		if list[i].ID == subtaskID {
			g.subtasks[caseID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return NotFound("subtask %s not found in case %s", subtaskID, caseID)
}

// setSubtaskStatus keeps CompletedAt consistent with the status: non-nil
// exactly when completed.
func setSubtaskStatus(s *model.Subtask, next model.SubtaskStatus) {
	s.Status = next
	if next == model.SubtaskStatusCompleted {
		t := time.Now().UTC()
		s.CompletedAt = &t
	} else {
		s.CompletedAt = nil
	}
}
