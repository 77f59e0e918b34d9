package domain

import "time"

// TaskStatus is the two-state task lifecycle. Transitions are unconditional
// toggles performed by any authorized actor.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Field length bounds enforced at creation and update time.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// Task represents an activity item owned by exactly one user and visible to
// the users it is shared with. OwnerID is immutable after creation.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	SharedWith  []string   `json:"shared_with"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// IsSharedWith reports whether the given user is in the shared-with set.
func (t *Task) IsSharedWith(userID string) bool {
	if t == nil || userID == "" {
		return false
	}
	for _, id := range t.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// TaskPatch carries the fields a task update request touched. Nil means the
// field was absent from the request. ClearDueDate distinguishes "remove the
// due date" from "leave it alone".
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
	SharedWith   []string
	SetShared    bool
}

// IsEmpty reports whether the patch touches nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.DueDate == nil && !p.ClearDueDate && !p.SetShared
}
