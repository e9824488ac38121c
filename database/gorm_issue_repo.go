package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rpupo63/issue-tracker/errs"
	"github.com/rpupo63/issue-tracker/models"
	"gorm.io/gorm"
)

// GormIssueRepo stores issues in a relational database (postgres or sqlite).
type GormIssueRepo struct {
	db *gorm.DB
}

func NewGormIssueRepo(db *gorm.DB) *GormIssueRepo {
	return &GormIssueRepo{db}
}

// Migrate creates the issues table and its indexes if missing
func (r *GormIssueRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.Issue{})
}

// FindByProject returns all issues of a project matching the filter
func (r *GormIssueRepo) FindByProject(ctx context.Context, project string, filter models.IssueFilter) ([]models.Issue, error) {
	issues := []models.Issue{}

	conditions, ok := gormConditions(filter)
	if !ok {
		return issues, nil
	}

	query := r.db.WithContext(ctx).Where(models.FieldProject+" = ?", project)
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	err := query.Find(&issues).Error
	return issues, err
}

// FindByID returns an issue by its ID
func (r *GormIssueRepo) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	if !isUUID(id) {
		return nil, errs.ErrRecordNotFound
	}

	var issue models.Issue
	err := r.db.WithContext(ctx).First(&issue, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// Add inserts a new issue into the database
func (r *GormIssueRepo) Add(ctx context.Context, issue *models.Issue) error {
	issue.ID = uuid.NewString()
	return r.db.WithContext(ctx).Create(issue).Error
}

// Update applies a partial update to an existing issue
func (r *GormIssueRepo) Update(ctx context.Context, id string, set models.UpdateSet) error {
	if !isUUID(id) {
		return errs.ErrRecordNotFound
	}

	result := r.db.WithContext(ctx).
		Model(&models.Issue{}).
		Where("id = ?", id).
		Updates(map[string]any(set))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrRecordNotFound
	}
	return nil
}

// Delete removes an issue from the database by id
func (r *GormIssueRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return errs.ErrRecordNotFound
	}

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Issue{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrRecordNotFound
	}
	return nil
}

// gormConditions maps a filter to column conditions. ok is false when the
// filter can never match, e.g. an _id that is not a UUID.
func gormConditions(filter models.IssueFilter) (map[string]any, bool) {
	conditions := make(map[string]any, len(filter))
	for key, value := range filter {
		if key == models.FieldID {
			id, _ := value.(string)
			if !isUUID(id) {
				return nil, false
			}
			conditions["id"] = id
			continue
		}
		conditions[key] = value
	}
	return conditions, true
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
