package database

import (
	"context"

	"github.com/rpupo63/issue-tracker/models"
)

// IssueRepo is the persistence boundary for issues. Every method is a single
// store call. Update and Delete return errs.ErrRecordNotFound both for
// unknown and for malformed identifiers.
type IssueRepo interface {
	// FindByProject returns the issues of project matching every filter entry.
	FindByProject(ctx context.Context, project string, filter models.IssueFilter) ([]models.Issue, error)
	// FindByID returns a single issue regardless of project (issues show).
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	// Add inserts issue and sets its ID.
	Add(ctx context.Context, issue *models.Issue) error
	// Update applies set to the issue with the given id.
	Update(ctx context.Context, id string, set models.UpdateSet) error
	// Delete removes the issue with the given id.
	Delete(ctx context.Context, id string) error
}
