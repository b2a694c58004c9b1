package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/lexhub/caseflow/src/internal/actions"
	"github.com/lexhub/caseflow/src/internal/api/apiErrors"
	"github.com/lexhub/caseflow/src/internal/gateway"
	"github.com/lexhub/caseflow/src/internal/model"
	"github.com/lexhub/caseflow/src/internal/store"
)

// Handler exposes the action surface over HTTP. Input validation lives
// here, not in the core: missing required fields are rejected before an
// action is ever dispatched.
type Handler struct {
	acts *actions.Actions
	log  *zap.Logger
}

func NewHandler(acts *actions.Actions, logger *zap.Logger) *Handler {
	return &Handler{acts: acts, log: logger}
}

func RegisterRoutes(r chi.Router, h *Handler, jwtSecret string) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Post("/cases/create", withTimeout(h.createCase))
		r.Get("/cases/list", withTimeout(h.listCases))
		r.Get("/cases/get", withTimeout(h.getCase))
		r.Post("/cases/update", withTimeout(h.updateCase))
		r.Post("/cases/updateStatus", withTimeout(h.updateCaseStatus))
		r.Post("/cases/addDocument", withTimeout(h.addDocument))
		r.Post("/cases/delete", withTimeout(h.deleteCase))

		r.Get("/subtasks/list", withTimeout(h.listSubtasks))
		r.Post("/subtasks/add", withTimeout(h.addSubtask))
		r.Post("/subtasks/update", withTimeout(h.updateSubtask))
		r.Post("/subtasks/toggle", withTimeout(h.toggleSubtask))
		r.Post("/subtasks/delete", withTimeout(h.deleteSubtask))

		r.Get("/state", h.getState)
		r.Get("/state/stream", h.streamState)
	})
}

func withTimeout(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) createCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string             `json:"title"`
		ClientName  string             `json:"client_name"`
		ClientID    string             `json:"client_id"`
		Value       model.Money        `json:"value"`
		Priority    model.Priority     `json:"priority"`
		CaseType    string             `json:"case_type"`
		Description string             `json:"description"`
		NextHearing string             `json:"next_hearing"`
		Team        []model.TeamMember `json:"team"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "invalid body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "title required")
		return
	}

	ident, _ := IdentityFrom(r.Context())
	draft := model.Case{
		Title:       req.Title,
		ClientName:  req.ClientName,
		ClientID:    req.ClientID,
		Value:       req.Value,
		Priority:    req.Priority,
		CaseType:    req.CaseType,
		Description: req.Description,
		NextHearing: req.NextHearing,
		Team:        req.Team,
	}
	if ident.Role == gateway.RoleLawyer {
		draft.LawyerID = ident.UserID
	} else if draft.ClientID == "" {
		draft.ClientID = ident.UserID
	}

	c, err := h.acts.CreateCase(r.Context(), draft).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"case": c})
}

func (h *Handler) listCases(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apiErrors.Unauthorized, "no identity")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	cs, err := h.acts.GetUserCases(r.Context(), actions.UserCasesQuery{
		UserID: ident.UserID,
		Role:   ident.Role,
		Limit:  limit,
		Offset: offset,
	}).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cs})
}

func (h *Handler) getCase(w http.ResponseWriter, r *http.Request) {
	caseID := r.URL.Query().Get("case_id")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id required")
		return
	}
	c, err := h.acts.GetCaseDetails(r.Context(), caseID).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"case": c})
}

func (h *Handler) updateCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID string          `json:"case_id"`
		Patch  model.CasePatch `json:"patch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id required")
		return
	}
	c, err := h.acts.UpdateCase(r.Context(), req.CaseID, req.Patch).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"case": c})
}

func (h *Handler) updateCaseStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID string           `json:"case_id"`
		Status model.CaseStatus `json:"status"`
		Note   string           `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id and status required")
		return
	}
	ev, err := h.acts.UpdateCaseStatus(r.Context(), req.CaseID, req.Status, req.Note).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline_event": ev})
}

func (h *Handler) addDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID   string         `json:"case_id"`
		Document model.Document `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" || req.Document.Name == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id and document.name required")
		return
	}
	if req.Document.UploadedBy == "" {
		if ident, ok := IdentityFrom(r.Context()); ok {
			req.Document.UploadedBy = ident.UserID
		}
	}
	doc, err := h.acts.AddCaseDocument(r.Context(), req.CaseID, req.Document).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
}

func (h *Handler) deleteCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID string `json:"case_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id required")
		return
	}
	if _, err := h.acts.DeleteCase(r.Context(), req.CaseID).Wait(r.Context()); err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": req.CaseID})
}

func (h *Handler) listSubtasks(w http.ResponseWriter, r *http.Request) {
	caseID := r.URL.Query().Get("case_id")
	if caseID == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id required")
		return
	}
	ss, err := h.acts.FetchSubtasks(r.Context(), caseID).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"case_id": caseID, "subtasks": ss})
}

func (h *Handler) addSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID  string        `json:"case_id"`
		Subtask model.Subtask `json:"subtask"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" || req.Subtask.Title == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id and subtask.title required")
		return
	}
	if req.Subtask.CreatedBy == "" {
		if ident, ok := IdentityFrom(r.Context()); ok {
			req.Subtask.CreatedBy = ident.UserID
		}
	}
	s, err := h.acts.AddSubtask(r.Context(), req.CaseID, req.Subtask).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"subtask": s})
}

func (h *Handler) updateSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID    string             `json:"case_id"`
		SubtaskID string             `json:"subtask_id"`
		Patch     model.SubtaskPatch `json:"patch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" || req.SubtaskID == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id and subtask_id required")
		return
	}
	s, err := h.acts.UpdateSubtask(r.Context(), req.CaseID, req.SubtaskID, req.Patch).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subtask": s})
}

func (h *Handler) toggleSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID     string              `json:"case_id"`
		SubtaskID  string              `json:"subtask_id"`
		NextStatus model.SubtaskStatus `json:"next_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" || req.SubtaskID == "" || req.NextStatus == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id, subtask_id and next_status required")
		return
	}
	s, err := h.acts.ToggleSubtaskStatus(r.Context(), req.CaseID, req.SubtaskID, req.NextStatus).Wait(r.Context())
	if err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subtask": s})
}

func (h *Handler) deleteSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID    string `json:"case_id"`
		SubtaskID string `json:"subtask_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CaseID == "" || req.SubtaskID == "" {
		writeError(w, http.StatusBadRequest, apiErrors.ValidationFailed, "case_id and subtask_id required")
		return
	}
	if _, err := h.acts.DeleteSubtask(r.Context(), req.CaseID, req.SubtaskID).Wait(r.Context()); err != nil {
		h.handleActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": req.SubtaskID})
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.acts.Store().Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, errCode apiErrors.ErrorCode, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{"code": errCode, "message": message},
	})
}

func (h *Handler) handleActionError(w http.ResponseWriter, err error) {
	var f *gateway.Failure
	if errors.As(err, &f) {
		status, apiErr := apiErrors.FromFailure(f)
		writeError(w, status, apiErr.Code, apiErr.Message)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(w, http.StatusGatewayTimeout, apiErrors.NetworkUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, apiErrors.InternalError, err.Error())
}

// SnapshotPayload is the shape pushed on the websocket state stream.
type SnapshotPayload struct {
	Type  string      `json:"type"`
	State store.State `json:"state"`
}
