package database

import (
	"context"
	"errors"
	"time"

	"github.com/rpupo63/issue-tracker/errs"
	"github.com/rpupo63/issue-tracker/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// issueDocument is the BSON shape of an issue.
type issueDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Project    string             `bson:"project"`
	IssueTitle string             `bson:"issue_title"`
	IssueText  string             `bson:"issue_text"`
	CreatedBy  string             `bson:"created_by"`
	AssignedTo string             `bson:"assigned_to"`
	StatusText string             `bson:"status_text"`
	Open       bool               `bson:"open"`
	CreatedOn  time.Time          `bson:"created_on"`
	UpdatedOn  time.Time          `bson:"updated_on"`
}

func newIssueDocument(issue *models.Issue) issueDocument {
	return issueDocument{
		Project:    issue.Project,
		IssueTitle: issue.IssueTitle,
		IssueText:  issue.IssueText,
		CreatedBy:  issue.CreatedBy,
		AssignedTo: issue.AssignedTo,
		StatusText: issue.StatusText,
		Open:       issue.Open,
		CreatedOn:  issue.CreatedOn,
		UpdatedOn:  issue.UpdatedOn,
	}
}

func (d issueDocument) issue() models.Issue {
	return models.Issue{
		ID:         d.ID.Hex(),
		Project:    d.Project,
		IssueTitle: d.IssueTitle,
		IssueText:  d.IssueText,
		CreatedBy:  d.CreatedBy,
		AssignedTo: d.AssignedTo,
		StatusText: d.StatusText,
		Open:       d.Open,
		CreatedOn:  d.CreatedOn,
		UpdatedOn:  d.UpdatedOn,
	}
}

// MongoIssueRepo stores issues as documents in a MongoDB collection.
type MongoIssueRepo struct {
	coll *mongo.Collection
}

func NewMongoIssueRepo(coll *mongo.Collection) *MongoIssueRepo {
	return &MongoIssueRepo{coll}
}

// Migrate creates the project index if missing
func (r *MongoIssueRepo) Migrate(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldProject, Value: 1}},
		Options: options.Index().SetName("idx_issue_project"),
	})
	return err
}

// FindByProject returns all issues of a project matching the filter
func (r *MongoIssueRepo) FindByProject(ctx context.Context, project string, filter models.IssueFilter) ([]models.Issue, error) {
	issues := []models.Issue{}

	query, ok := mongoFilter(project, filter)
	if !ok {
		return issues, nil
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc issueDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		issues = append(issues, doc.issue())
	}
	return issues, cursor.Err()
}

// FindByID returns an issue by its ID
func (r *MongoIssueRepo) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrRecordNotFound
	}

	var doc issueDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	issue := doc.issue()
	return &issue, nil
}

// Add inserts a new issue document
func (r *MongoIssueRepo) Add(ctx context.Context, issue *models.Issue) error {
	doc := newIssueDocument(issue)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	issue.ID = doc.ID.Hex()
	return nil
}

// Update applies a partial update with a single find-and-update
func (r *MongoIssueRepo) Update(ctx context.Context, id string, set models.UpdateSet) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrRecordNotFound
	}

	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, mongoUpdate(set)).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrRecordNotFound
	}
	return err
}

// Delete removes an issue with a single find-and-delete
func (r *MongoIssueRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrRecordNotFound
	}

	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrRecordNotFound
	}
	return err
}

// mongoFilter builds the find query. ok is false when the filter can never
// match, e.g. an _id that is not an ObjectID.
func mongoFilter(project string, filter models.IssueFilter) (bson.M, bool) {
	query := bson.M{models.FieldProject: project}
	for key, value := range filter {
		if key == models.FieldID {
			hex, _ := value.(string)
			oid, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return nil, false
			}
			query["_id"] = oid
			continue
		}
		query[key] = value
	}
	return query, true
}

func mongoUpdate(set models.UpdateSet) bson.M {
	fields := make(bson.M, len(set))
	for key, value := range set {
		fields[key] = value
	}
	return bson.M{"$set": fields}
}
