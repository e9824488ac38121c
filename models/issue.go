package models

import "time"

// Issue represents a single tracked issue scoped to a project
type Issue struct {
	ID         string    `json:"_id" db:"id" gorm:"column:id;type:uuid;primaryKey;not null"`
	Project    string    `json:"project" db:"project" gorm:"column:project;type:text;not null;index:idx_issue_project"`
	IssueTitle string    `json:"issue_title" db:"issue_title" gorm:"column:issue_title;type:text;not null"`
	IssueText  string    `json:"issue_text" db:"issue_text" gorm:"column:issue_text;type:text;not null"`
	CreatedBy  string    `json:"created_by" db:"created_by" gorm:"column:created_by;type:text;not null"`
	AssignedTo string    `json:"assigned_to" db:"assigned_to" gorm:"column:assigned_to;type:text;not null;default:''"`
	StatusText string    `json:"status_text" db:"status_text" gorm:"column:status_text;type:text;not null;default:''"`
	Open       bool      `json:"open" db:"open" gorm:"column:open;not null"`
	CreatedOn  time.Time `json:"created_on" db:"created_on" gorm:"column:created_on;not null"`
	UpdatedOn  time.Time `json:"updated_on" db:"updated_on" gorm:"column:updated_on;not null"`
}

func (Issue) TableName() string { return "issues" }

// Field names as they appear on the wire and in the document store.
const (
	FieldID         = "_id"
	FieldProject    = "project"
	FieldIssueTitle = "issue_title"
	FieldIssueText  = "issue_text"
	FieldCreatedBy  = "created_by"
	FieldAssignedTo = "assigned_to"
	FieldStatusText = "status_text"
	FieldOpen       = "open"
	FieldCreatedOn  = "created_on"
	FieldUpdatedOn  = "updated_on"
)

// FieldKind is the declared type of an issue field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindBool
	KindTime
)

// Fields lists every declared issue field with its type.
var Fields = map[string]FieldKind{
	FieldID:         KindText,
	FieldProject:    KindText,
	FieldIssueTitle: KindText,
	FieldIssueText:  KindText,
	FieldCreatedBy:  KindText,
	FieldAssignedTo: KindText,
	FieldStatusText: KindText,
	FieldOpen:       KindBool,
	FieldCreatedOn:  KindTime,
	FieldUpdatedOn:  KindTime,
}

// UpdateSet maps wire field names to typed replacement values.
type UpdateSet map[string]any

// IssueFilter maps wire field names to typed values that must match exactly.
type IssueFilter map[string]any
