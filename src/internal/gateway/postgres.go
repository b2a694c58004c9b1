package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lexhub/caseflow/src/internal/model"
)

// Postgres backs the gateway with a document-style schema: one row per
// case holding its documents, timeline and team as jsonb arrays, plus a
// subtasks table scoped by case id. All createdAt/updatedAt stamps come
// from the database clock, so client clock skew cannot corrupt ordering.
type Postgres struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostgres(db *sql.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, log: logger}
}

const caseColumns = `id, title, client_name, lawyer_id, client_id, value_amount, value_currency,
	status, priority, case_type, description, progress, next_hearing,
	team, documents, timeline, created_at, updated_at`

func (g *Postgres) scanCase(row interface{ Scan(...any) error }) (model.Case, error) {
	var c model.Case
	var team, documents, timeline []byte
	err := row.Scan(&c.ID, &c.Title, &c.ClientName, &c.LawyerID, &c.ClientID,
		&c.Value.Amount, &c.Value.Currency, &c.Status, &c.Priority, &c.CaseType,
		&c.Description, &c.Progress, &c.NextHearing,
		&team, &documents, &timeline, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Case{}, err
	}
	c.Team = model.NormalizeTeam(team)
	if err := json.Unmarshal(documents, &c.Documents); err != nil {
		return model.Case{}, fmt.Errorf("decode documents for case %s: %w", c.ID, err)
	}
	if err := json.Unmarshal(timeline, &c.Timeline); err != nil {
		return model.Case{}, fmt.Errorf("decode timeline for case %s: %w", c.ID, err)
	}
	return c, nil
}

func (g *Postgres) CreateCase(ctx context.Context, draft model.Case) (model.Case, *Failure) {
	g.log.Debug("CreateCase: start", zap.String("title", draft.Title))

	team, err := json.Marshal(model.NormalizeTeam(mustJSON(draft.Team)))
	if err != nil {
		return model.Case{}, AsFailure(err)
	}

	// Client-provided status is overwritten with "active"; timeline,
	// documents and subtasks start empty; progress starts at zero.
	row := g.db.QueryRowContext(ctx, `
		INSERT INTO cases (title, client_name, lawyer_id, client_id, value_amount, value_currency,
			status, priority, case_type, description, progress, next_hearing, team)
		VALUES ($1,$2,$3,$4,$5,$6,'active',$7,$8,$9,0,$10,$11::jsonb)
		RETURNING `+caseColumns,
		draft.Title, draft.ClientName, draft.LawyerID, draft.ClientID,
		draft.Value.Amount, currencyOrDefault(draft.Value.Currency),
		priorityOrDefault(draft.Priority), draft.CaseType, draft.Description,
		draft.NextHearing, team)

	c, err := g.scanCase(row)
	if err != nil {
		g.log.Error("CreateCase: insert failed", zap.Error(err))
		return model.Case{}, classify(err)
	}
	g.log.Info("CreateCase: success", zap.String("case_id", c.ID))
	return c, nil
}

func (g *Postgres) GetUserCases(ctx context.Context, userID, role string, limit, offset int) ([]model.Case, *Failure) {
	g.log.Debug("GetUserCases: start", zap.String("user", userID), zap.String("role", role))
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	filter := "client_id = $1"
	if role == RoleLawyer {
		filter = "lawyer_id = $1"
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE `+filter+`
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		g.log.Error("GetUserCases: query failed", zap.String("user", userID), zap.Error(err))
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]model.Case, 0)
	for rows.Next() {
		c, err := g.scanCase(rows)
		if err != nil {
			g.log.Error("GetUserCases: scan failed", zap.Error(err))
			return nil, classify(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	g.log.Debug("GetUserCases: success", zap.Int("count", len(out)))
	return out, nil
}

func (g *Postgres) GetCaseDetails(ctx context.Context, caseID string) (model.Case, *Failure) {
	g.log.Debug("GetCaseDetails: start", zap.String("case_id", caseID))

	row := g.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, caseID)
	c, err := g.scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Case{}, NotFound("case %s not found", caseID)
		}
		g.log.Error("GetCaseDetails: query failed", zap.String("case_id", caseID), zap.Error(err))
		return model.Case{}, classify(err)
	}

	subtasks, fail := g.GetSubtasks(ctx, caseID)
	if fail != nil {
		return model.Case{}, fail
	}
	c.Subtasks = subtasks
	return c, nil
}

func (g *Postgres) UpdateCase(ctx context.Context, caseID string, patch model.CasePatch) (model.Case, *Failure) {
	g.log.Debug("UpdateCase: start", zap.String("case_id", caseID))

	sets := []string{"updated_at = now()"}
	args := []any{caseID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.ClientName != nil {
		add("client_name", *patch.ClientName)
	}
	if patch.Value != nil {
		add("value_amount", patch.Value.Amount)
		add("value_currency", currencyOrDefault(patch.Value.Currency))
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.CaseType != nil {
		add("case_type", *patch.CaseType)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Progress != nil {
		add("progress", model.ClampProgress(*patch.Progress))
	}
	if patch.NextHearing != nil {
		add("next_hearing", *patch.NextHearing)
	}
	if patch.Team != nil {
		team, err := json.Marshal(model.NormalizeTeam(mustJSON(*patch.Team)))
		if err != nil {
			return model.Case{}, AsFailure(err)
		}
		args = append(args, team)
		sets = append(sets, fmt.Sprintf("team = $%d::jsonb", len(args)))
	}

	row := g.db.QueryRowContext(ctx, `
		UPDATE cases SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+caseColumns, args...)
	c, err := g.scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Case{}, NotFound("case %s not found", caseID)
		}
		g.log.Error("UpdateCase: update failed", zap.String("case_id", caseID), zap.Error(err))
		return model.Case{}, classify(err)
	}
	g.log.Info("UpdateCase: success", zap.String("case_id", caseID))
	return c, nil
}

func (g *Postgres) UpdateCaseStatus(ctx context.Context, caseID string, status model.CaseStatus, note string) (model.TimelineEvent, *Failure) {
	g.log.Debug("UpdateCaseStatus: start", zap.String("case_id", caseID), zap.String("status", string(status)))

	// Status set and timeline append are one statement: both changes
	// land together or neither does.
	var raw []byte
	err := g.db.QueryRowContext(ctx, `
		UPDATE cases
		SET status = $2,
		    updated_at = now(),
		    timeline = timeline || jsonb_build_object(
		        'id', $3::text, 'status', $2::text, 'note', $4::text, 'created_at', now())
		WHERE id = $1
		RETURNING timeline->-1`,
		caseID, string(status), uuid.New().String(), note).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TimelineEvent{}, NotFound("case %s not found", caseID)
		}
		g.log.Error("UpdateCaseStatus: update failed", zap.String("case_id", caseID), zap.Error(err))
		return model.TimelineEvent{}, classify(err)
	}

	var ev model.TimelineEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return model.TimelineEvent{}, AsFailure(err)
	}
	g.log.Info("UpdateCaseStatus: success", zap.String("case_id", caseID), zap.String("status", string(status)))
	return ev, nil
}

func (g *Postgres) AddCaseDocument(ctx context.Context, caseID string, doc model.Document) (model.Document, *Failure) {
	g.log.Debug("AddCaseDocument: start", zap.String("case_id", caseID), zap.String("name", doc.Name))

	var raw []byte
	err := g.db.QueryRowContext(ctx, `
		UPDATE cases
		SET updated_at = now(),
		    documents = documents || jsonb_build_object(
		        'id', $2::text, 'name', $3::text, 'url', $4::text,
		        'content_type', $5::text, 'size', $6::bigint,
		        'uploaded_by', $7::text, 'uploaded_at', now())
		WHERE id = $1
		RETURNING documents->-1`,
		caseID, uuid.New().String(), doc.Name, doc.URL, doc.ContentType, doc.Size, doc.UploadedBy).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Document{}, NotFound("case %s not found", caseID)
		}
		g.log.Error("AddCaseDocument: update failed", zap.String("case_id", caseID), zap.Error(err))
		return model.Document{}, classify(err)
	}

	var out model.Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Document{}, AsFailure(err)
	}
	g.log.Info("AddCaseDocument: success", zap.String("case_id", caseID), zap.String("doc_id", out.ID))
	return out, nil
}

func (g *Postgres) DeleteCase(ctx context.Context, caseID string) *Failure {
	g.log.Debug("DeleteCase: start", zap.String("case_id", caseID))

	res, err := g.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, caseID)
	if err != nil {
		g.log.Error("DeleteCase: delete failed", zap.String("case_id", caseID), zap.Error(err))
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFound("case %s not found", caseID)
	}
	g.log.Info("DeleteCase: success", zap.String("case_id", caseID))
	return nil
}

const subtaskColumns = `id, case_id, title, description, assignee, due_date, priority, category,
	status, completed_at, created_by, created_at`

func scanSubtask(row interface{ Scan(...any) error }) (model.Subtask, error) {
	var s model.Subtask
	var completed sql.NullTime
	err := row.Scan(&s.ID, &s.CaseID, &s.Title, &s.Description, &s.Assignee, &s.DueDate,
		&s.Priority, &s.Category, &s.Status, &completed, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		return model.Subtask{}, err
	}
	if completed.Valid {
		t := completed.Time
		s.CompletedAt = &t
	}
	return s, nil
}

func (g *Postgres) GetSubtasks(ctx context.Context, caseID string) ([]model.Subtask, *Failure) {
	g.log.Debug("GetSubtasks: start", zap.String("case_id", caseID))

	rows, err := g.db.QueryContext(ctx, `
		SELECT `+subtaskColumns+` FROM subtasks
		WHERE case_id = $1
		ORDER BY created_at DESC`, caseID)
	if err != nil {
		g.log.Error("GetSubtasks: query failed", zap.String("case_id", caseID), zap.Error(err))
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]model.Subtask, 0)
	for rows.Next() {
		s, err := scanSubtask(rows)
		if err != nil {
			g.log.Error("GetSubtasks: scan failed", zap.Error(err))
			return nil, classify(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (g *Postgres) CreateSubtask(ctx context.Context, caseID string, draft model.Subtask) (model.Subtask, *Failure) {
	g.log.Debug("CreateSubtask: start", zap.String("case_id", caseID), zap.String("title", draft.Title))

	status := draft.Status
	if status == "" {
		status = model.SubtaskStatusPending
	}

	row := g.db.QueryRowContext(ctx, `
		INSERT INTO subtasks (case_id, title, description, assignee, due_date, priority, category, status, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+subtaskColumns,
		caseID, draft.Title, draft.Description, draft.Assignee, draft.DueDate,
		priorityOrDefault(draft.Priority), draft.Category, string(status), draft.CreatedBy)

	s, err := scanSubtask(row)
	if err != nil {
		g.log.Error("CreateSubtask: insert failed", zap.String("case_id", caseID), zap.Error(err))
		return model.Subtask{}, classify(err)
	}
	g.log.Info("CreateSubtask: success", zap.String("case_id", caseID), zap.String("subtask_id", s.ID))
	return s, nil
}

func (g *Postgres) UpdateSubtask(ctx context.Context, caseID, subtaskID string, patch model.SubtaskPatch) (model.Subtask, *Failure) {
	g.log.Debug("UpdateSubtask: start", zap.String("case_id", caseID), zap.String("subtask_id", subtaskID))

	sets := []string{}
	args := []any{caseID, subtaskID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Assignee != nil {
		add("assignee", *patch.Assignee)
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
		// completed_at tracks status structurally: set when completing,
		// cleared otherwise.
		if *patch.Status == model.SubtaskStatusCompleted {
			sets = append(sets, "completed_at = now()")
		} else {
			sets = append(sets, "completed_at = NULL")
		}
	}
	if len(sets) == 0 {
		return g.getSubtask(ctx, caseID, subtaskID)
	}

	row := g.db.QueryRowContext(ctx, `
		UPDATE subtasks SET `+strings.Join(sets, ", ")+`
		WHERE case_id = $1 AND id = $2
		RETURNING `+subtaskColumns, args...)
	s, err := scanSubtask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Subtask{}, NotFound("subtask %s not found in case %s", subtaskID, caseID)
		}
		g.log.Error("UpdateSubtask: update failed", zap.String("subtask_id", subtaskID), zap.Error(err))
		return model.Subtask{}, classify(err)
	}
	g.log.Info("UpdateSubtask: success", zap.String("subtask_id", subtaskID))
	return s, nil
}

func (g *Postgres) ToggleSubtaskStatus(ctx context.Context, caseID, subtaskID string, next model.SubtaskStatus) (model.Subtask, *Failure) {
	g.log.Debug("ToggleSubtaskStatus: start", zap.String("subtask_id", subtaskID), zap.String("next", string(next)))

	row := g.db.QueryRowContext(ctx, `
		UPDATE subtasks
		SET status = $3,
		    completed_at = CASE WHEN $3::text = 'completed' THEN now() ELSE NULL END
		WHERE case_id = $1 AND id = $2
		RETURNING `+subtaskColumns, caseID, subtaskID, string(next))
	s, err := scanSubtask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Subtask{}, NotFound("subtask %s not found in case %s", subtaskID, caseID)
		}
		g.log.Error("ToggleSubtaskStatus: update failed", zap.String("subtask_id", subtaskID), zap.Error(err))
		return model.Subtask{}, classify(err)
	}
	return s, nil
}

func (g *Postgres) DeleteSubtask(ctx context.Context, caseID, subtaskID string) *Failure {
	g.log.Debug("DeleteSubtask: start", zap.String("case_id", caseID), zap.String("subtask_id", subtaskID))

	res, err := g.db.ExecContext(ctx, `DELETE FROM subtasks WHERE case_id = $1 AND id = $2`, caseID, subtaskID)
	if err != nil {
		g.log.Error("DeleteSubtask: delete failed", zap.String("subtask_id", subtaskID), zap.Error(err))
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFound("subtask %s not found in case %s", subtaskID, caseID)
	}
	return nil
}

func (g *Postgres) getSubtask(ctx context.Context, caseID, subtaskID string) (model.Subtask, *Failure) {
	row := g.db.QueryRowContext(ctx, `
		SELECT `+subtaskColumns+` FROM subtasks WHERE case_id = $1 AND id = $2`, caseID, subtaskID)
	s, err := scanSubtask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Subtask{}, NotFound("subtask %s not found in case %s", subtaskID, caseID)
		}
		return model.Subtask{}, classify(err)
	}
	return s, nil
}

// classify maps driver errors onto failure kinds. Message text is kept
// as-is; callers see the kind plus the collapsed string.
func classify(err error) *Failure {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "28", pqErr.Code == "42501":
			return &Failure{Kind: KindPermissionDenied, Message: pqErr.Message}
		case pqErr.Code.Class() == "22", pqErr.Code.Class() == "23":
			return &Failure{Kind: KindValidationFailed, Message: pqErr.Message}
		case pqErr.Code.Class() == "08":
			return &Failure{Kind: KindNetworkUnavailable, Message: pqErr.Message}
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Failure{Kind: KindNetworkUnavailable, Message: err.Error()}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Failure{Kind: KindNotFound, Message: err.Error()}
	}
	return &Failure{Kind: KindUnknown, Message: err.Error()}
}

func priorityOrDefault(p model.Priority) string {
	if p == "" {
		return string(model.PriorityMedium)
	}
	return string(p)
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "INR"
	}
	return c
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("[]")
	}
	return b
}
