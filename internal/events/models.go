// Package events defines the event model shared by the notification and
// audit-log subsystems. A single Event type is tagged with a Category so the
// two record families share storage and delivery infrastructure while keeping
// distinct lifecycles: notifications carry read state, audit entries are a
// write-only log.
package events

import (
	"context"
	"time"

	id "employee-compass/pkg/domain"
)

// Category classifies events by lifecycle.
type Category string

const (
	// CategoryNotification covers user-facing alerts with read/unread state.
	// Examples: high-risk employee alerts, evaluation reminders.
	CategoryNotification Category = "notification"

	// CategoryAudit covers the write-only activity log. Audit entries have no
	// read state and never transition after creation.
	CategoryAudit Category = "audit"
)

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return c == CategoryNotification || c == CategoryAudit
}

// Kind is the closed set of event kinds. Each kind belongs to exactly one
// category; appends with an unknown kind are rejected before any state change.
type Kind string

const (
	// Notification kinds
	KindHighRisk   Kind = "high_risk"
	KindEvaluation Kind = "evaluation"
	KindSystem     Kind = "system"
	KindRetraining Kind = "retraining"
	KindInfo       Kind = "info"

	// Audit kinds
	KindLogin        Kind = "login"
	KindLogout       Kind = "logout"
	KindPrediction   Kind = "prediction"
	KindRecordEdit   Kind = "record_edit"
	KindRecordAdd    Kind = "record_add"
	KindRecordDelete Kind = "record_delete"
	KindDataUpload   Kind = "data_upload"
	KindError        Kind = "error"
)

// kindCategories maps each kind to its category. This map is the single
// source of truth for kind validation.
var kindCategories = map[Kind]Category{
	KindHighRisk:   CategoryNotification,
	KindEvaluation: CategoryNotification,
	KindSystem:     CategoryNotification,
	KindRetraining: CategoryNotification,
	KindInfo:       CategoryNotification,

	KindLogin:        CategoryAudit,
	KindLogout:       CategoryAudit,
	KindPrediction:   CategoryAudit,
	KindRecordEdit:   CategoryAudit,
	KindRecordAdd:    CategoryAudit,
	KindRecordDelete: CategoryAudit,
	KindDataUpload:   CategoryAudit,
	KindError:        CategoryAudit,
}

// Category returns the category for this kind and whether the kind is known.
func (k Kind) Category() (Category, bool) {
	cat, ok := kindCategories[k]
	return cat, ok
}

// IsValid checks if the kind is in the closed set.
func (k Kind) IsValid() bool {
	_, ok := kindCategories[k]
	return ok
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Event is a notification or audit-log record addressed to a recipient.
// IDs are assigned by the store, strictly increasing in insertion order, and
// CreatedAt never decreases between successive appends.
type Event struct {
	ID         int64             `json:"id"`
	Recipient  id.UserID         `json:"recipient"`
	Category   Category          `json:"category"`
	Kind       Kind              `json:"kind"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	SubjectRef id.EmployeeID     `json:"subject_ref,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	NavigateTo string            `json:"navigate_to,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`

	// Read state applies to notifications only; audit entries stay false.
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

// AppendRequest carries the caller-supplied fields of a new event. The store
// assigns ID, CreatedAt, Category (derived from Kind), and read state.
type AppendRequest struct {
	Recipient  id.UserID
	Kind       Kind
	Title      string
	Body       string
	SubjectRef id.EmployeeID
	Metadata   map[string]string
	NavigateTo string
}

// Page bounds a List call. Limit <= 0 means no limit; BeforeID == 0 starts
// from the newest event.
type Page struct {
	Limit    int
	BeforeID int64
}

// Saver persists events outside the in-memory store. Implementations must
// tolerate being called after the in-memory commit: a failed save is reported
// and logged but never rolls back the canonical state.
type Saver interface {
	Save(ctx context.Context, event Event) error
}
