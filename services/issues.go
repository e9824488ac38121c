package services

import (
	"net/url"
	"time"

	"github.com/rpupo63/issue-tracker/errs"
	"github.com/rpupo63/issue-tracker/models"
	"github.com/spf13/cast"
)

// Fields holds the raw values of a decoded request body, keyed by wire name.
type Fields map[string]any

// String returns the field as text. Absent and null values read as "".
func (f Fields) String(key string) (string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", nil
	}
	return cast.ToStringE(v)
}

// Identifier returns the _id field. null, "", 0 and false count as absent.
func (f Fields) Identifier() (string, bool) {
	raw, ok := f[models.FieldID]
	if !ok || isFalsy(raw) {
		return "", false
	}
	id, err := cast.ToStringE(raw)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// Update is a validated partial update addressed to a single issue.
type Update struct {
	ID  string
	Set models.UpdateSet
}

// serverOwned fields are never taken from a request.
var serverOwned = map[string]bool{
	models.FieldCreatedOn: true,
	models.FieldUpdatedOn: true,
}

// updatable lists the fields a client may change.
var updatable = map[string]bool{
	models.FieldProject:    true,
	models.FieldIssueTitle: true,
	models.FieldIssueText:  true,
	models.FieldCreatedBy:  true,
	models.FieldAssignedTo: true,
	models.FieldStatusText: true,
	models.FieldOpen:       true,
}

var required = []string{
	models.FieldIssueTitle,
	models.FieldIssueText,
	models.FieldCreatedBy,
}

var createFields = []string{
	models.FieldIssueTitle,
	models.FieldIssueText,
	models.FieldCreatedBy,
	models.FieldAssignedTo,
	models.FieldStatusText,
}

// NewIssue validates a create request and returns the record to persist.
// The store assigns the identifier.
func NewIssue(project string, fields Fields, now time.Time) (*models.Issue, error) {
	// A value that is not text counts as absent.
	values := make(map[string]string, len(createFields))
	for _, key := range createFields {
		if s, err := fields.String(key); err == nil {
			values[key] = s
		}
	}

	for _, key := range required {
		if values[key] == "" {
			return nil, errs.NewMissingRequiredFieldError(key)
		}
	}

	return &models.Issue{
		Project:    project,
		IssueTitle: values[models.FieldIssueTitle],
		IssueText:  values[models.FieldIssueText],
		CreatedBy:  values[models.FieldCreatedBy],
		AssignedTo: values[models.FieldAssignedTo],
		StatusText: values[models.FieldStatusText],
		Open:       true,
		CreatedOn:  now,
		UpdatedOn:  now,
	}, nil
}

// BuildUpdate computes the update set for a PUT body. Empty strings mean
// "leave unchanged", never "clear". Undeclared fields count as sent but are
// not stored, so such an update only refreshes updated_on. The returned
// Update carries the identifier even when err is ErrEmptyUpdateSet or
// ErrInvalidField.
func BuildUpdate(fields Fields, now time.Time) (Update, error) {
	id, ok := fields.Identifier()
	if !ok {
		return Update{}, errs.ErrMissingIdentifier
	}

	update := Update{ID: id, Set: models.UpdateSet{}}
	sent := false
	for key, raw := range fields {
		if key == models.FieldID || serverOwned[key] || isBlank(raw) {
			continue
		}
		sent = true
		if !updatable[key] {
			continue
		}

		value, err := coerce(key, raw)
		if err != nil {
			return update, errs.NewInvalidFieldError(key, err)
		}
		update.Set[key] = value
	}

	if !sent {
		return update, errs.ErrEmptyUpdateSet
	}

	update.Set[models.FieldUpdatedOn] = now
	return update, nil
}

// BuildFilter turns list query parameters into an equality filter over
// declared fields. Only the first value of a repeated key is used.
func BuildFilter(query url.Values) (models.IssueFilter, error) {
	filter := models.IssueFilter{}
	for key, values := range query {
		if key == models.FieldProject || len(values) == 0 {
			continue
		}
		if _, declared := models.Fields[key]; !declared {
			return nil, errs.NewInvalidFieldError(key, nil)
		}

		value, err := coerce(key, values[0])
		if err != nil {
			return nil, errs.NewInvalidFieldError(key, err)
		}
		filter[key] = value
	}
	return filter, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func isFalsy(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case int:
		return v == 0
	}
	return false
}

func coerce(key string, raw any) (any, error) {
	switch models.Fields[key] {
	case models.KindBool:
		return cast.ToBoolE(raw)
	case models.KindTime:
		return cast.ToTimeE(raw)
	default:
		return cast.ToStringE(raw)
	}
}
