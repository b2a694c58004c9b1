package model

import "time"

type CaseStatus string

const (
	CaseStatusActive    CaseStatus = "active"
	CaseStatusPending   CaseStatus = "pending"
	CaseStatusReview    CaseStatus = "review"
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusOnHold    CaseStatus = "on-hold"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

type SubtaskStatus string

const (
	SubtaskStatusPending    SubtaskStatus = "pending"
	SubtaskStatusInProgress SubtaskStatus = "in_progress"
	SubtaskStatusBlocked    SubtaskStatus = "blocked"
	SubtaskStatusCompleted  SubtaskStatus = "completed"
)

// NextHearingCompleted is the sentinel used in place of a hearing date
// once a case is closed out.
const NextHearingCompleted = "Completed"

// Case represents a legal matter. The id is assigned by the persistence
// layer on creation and never changes afterwards.
type Case struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	ClientName  string          `json:"client_name"`
	LawyerID    string          `json:"lawyer_id"`
	ClientID    string          `json:"client_id"`
	Value       Money           `json:"value"`
	Status      CaseStatus      `json:"status"`
	Priority    Priority        `json:"priority"`
	CaseType    string          `json:"case_type"`
	Description string          `json:"description"`
	Progress    int             `json:"progress"`
	NextHearing string          `json:"next_hearing,omitempty"`
	Team        []TeamMember    `json:"team"`
	Documents   []Document      `json:"documents"`
	Timeline    []TimelineEvent `json:"timeline"`
	Subtasks    []Subtask       `json:"subtasks,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Subtask is a unit of work inside a case. CompletedAt is non-nil if and
// only if Status is "completed".
type Subtask struct {
	ID          string        `json:"id"`
	CaseID      string        `json:"case_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Assignee    string        `json:"assignee,omitempty"`
	DueDate     string        `json:"due_date,omitempty"`
	Priority    Priority      `json:"priority"`
	Category    string        `json:"category,omitempty"`
	Status      SubtaskStatus `json:"status"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type TimelineEvent struct {
	ID        string     `json:"id"`
	Status    CaseStatus `json:"status"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type TeamMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CasePatch carries a partial case update; nil fields are left untouched.
type CasePatch struct {
	Title       *string       `json:"title,omitempty"`
	ClientName  *string       `json:"client_name,omitempty"`
	Value       *Money        `json:"value,omitempty"`
	Priority    *Priority     `json:"priority,omitempty"`
	CaseType    *string       `json:"case_type,omitempty"`
	Description *string       `json:"description,omitempty"`
	Progress    *int          `json:"progress,omitempty"`
	NextHearing *string       `json:"next_hearing,omitempty"`
	Team        *[]TeamMember `json:"team,omitempty"`
}

// SubtaskPatch carries a partial subtask update; nil fields are left untouched.
type SubtaskPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Assignee    *string        `json:"assignee,omitempty"`
	DueDate     *string        `json:"due_date,omitempty"`
	Priority    *Priority      `json:"priority,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Status      *SubtaskStatus `json:"status,omitempty"`
}

// ClampProgress bounds a progress percentage to [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Clone returns a deep copy; callers may mutate the result freely.
func (c Case) Clone() Case {
	out := c
	out.Team = append([]TeamMember(nil), c.Team...)
	out.Documents = append([]Document(nil), c.Documents...)
	out.Timeline = append([]TimelineEvent(nil), c.Timeline...)
	out.Subtasks = CloneSubtasks(c.Subtasks)
	return out
}

func CloneCases(cs []Case) []Case {
	if cs == nil {
		return nil
	}
	out := make([]Case, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}

func (s Subtask) Clone() Subtask {
	out := s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

func CloneSubtasks(ss []Subtask) []Subtask {
	if ss == nil {
		return nil
	}
	out := make([]Subtask, len(ss))
	for i, s := range ss {
		out[i] = s.Clone()
	}
	return out
}

type AppError string

func (e AppError) Error() string { return string(e) }

const (
	ErrCaseNotFound    = AppError("CASE_NOT_FOUND")
	ErrSubtaskNotFound = AppError("SUBTASK_NOT_FOUND")
)
