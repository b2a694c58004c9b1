package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexhub/caseflow/src/internal/actions"
	"github.com/lexhub/caseflow/src/internal/gateway"
	"github.com/lexhub/caseflow/src/internal/model"
	"github.com/lexhub/caseflow/src/internal/store"
)

const testSecret = "test-secret"

func newTestRouter() *chi.Mux {
	acts := actions.New(gateway.NewMemory(), store.New(), zap.NewNop())
	h := NewHandler(acts, zap.NewNop())
	r := chi.NewRouter()
	RegisterRoutes(r, h, testSecret)
	return r
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthNeedsNoAuth(t *testing.T) {
	r := newTestRouter()
	rec := doRequest(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	r := newTestRouter()
	rec := doRequest(t, r, http.MethodGet, "/cases/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestsWithWrongSecretAreRejected(t *testing.T) {
	r := newTestRouter()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": "lawyer"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	rec := doRequest(t, r, http.MethodGet, "/cases/list", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListCase(t *testing.T) {
	r := newTestRouter()
	token := signToken(t, "lawyer-1", "lawyer")

	rec := doRequest(t, r, http.MethodPost, "/cases/create", token, map[string]any{
		"title":       "Merger Review",
		"client_name": "Acme Co",
		"value":       map[string]any{"amount": 50000000, "currency": "INR"},
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Case model.Case `json:"case"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Case.ID)
	assert.Equal(t, model.CaseStatusActive, created.Case.Status)
	assert.Equal(t, "lawyer-1", created.Case.LawyerID, "owner taken from token")

	rec = doRequest(t, r, http.MethodGet, "/cases/list", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Cases []model.Case `json:"cases"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Cases, 1)
	assert.Equal(t, created.Case.ID, listed.Cases[0].ID)
}

func TestCreateCaseRequiresTitle(t *testing.T) {
	r := newTestRouter()
	token := signToken(t, "lawyer-1", "lawyer")

	rec := doRequest(t, r, http.MethodPost, "/cases/create", token, map[string]any{"client_name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownCaseReturnsNotFound(t *testing.T) {
	r := newTestRouter()
	token := signToken(t, "lawyer-1", "lawyer")

	rec := doRequest(t, r, http.MethodGet, "/cases/get?case_id=nope", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestSubtaskFlow(t *testing.T) {
	r := newTestRouter()
	token := signToken(t, "lawyer-1", "lawyer")

	rec := doRequest(t, r, http.MethodPost, "/cases/create", token, map[string]any{"title": "Case"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Case model.Case `json:"case"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, r, http.MethodPost, "/subtasks/add", token, map[string]any{
		"case_id": created.Case.ID,
		"subtask": map[string]any{"title": "Draft MOU", "priority": "high"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added struct {
		Subtask model.Subtask `json:"subtask"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, model.SubtaskStatusPending, added.Subtask.Status)
	assert.Equal(t, "lawyer-1", added.Subtask.CreatedBy)

	rec = doRequest(t, r, http.MethodPost, "/subtasks/toggle", token, map[string]any{
		"case_id":     created.Case.ID,
		"subtask_id":  added.Subtask.ID,
		"next_status": "completed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled struct {
		Subtask model.Subtask `json:"subtask"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toggled))
	assert.Equal(t, model.SubtaskStatusCompleted, toggled.Subtask.Status)
	assert.NotNil(t, toggled.Subtask.CompletedAt)

	rec = doRequest(t, r, http.MethodGet, "/subtasks/list?case_id="+created.Case.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Subtasks []model.Subtask `json:"subtasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Subtasks, 1)

	rec = doRequest(t, r, http.MethodPost, "/subtasks/delete", token, map[string]any{
		"case_id":    created.Case.ID,
		"subtask_id": added.Subtask.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusAppendsTimeline(t *testing.T) {
	r := newTestRouter()
	token := signToken(t, "lawyer-1", "lawyer")

	rec := doRequest(t, r, http.MethodPost, "/cases/create", token, map[string]any{"title": "Case"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Case model.Case `json:"case"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, r, http.MethodPost, "/cases/updateStatus", token, map[string]any{
		"case_id": created.Case.ID,
		"status":  "completed",
		"note":    "done",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/cases/get?case_id="+created.Case.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Case model.Case `json:"case"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.CaseStatusCompleted, got.Case.Status)
	require.Len(t, got.Case.Timeline, 1)
	assert.Equal(t, "done", got.Case.Timeline[0].Note)
}

func TestStateEndpointReflectsStore(t *testing.T) {
	r := newTestRouter()
	token := signToken(t, "lawyer-1", "lawyer")

	rec := doRequest(t, r, http.MethodPost, "/cases/create", token, map[string]any{"title": "Case"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(t, r, http.MethodGet, "/cases/list", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/state", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap store.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Len(t, snap.Cases, 1)
	assert.False(t, snap.Loading)
}
