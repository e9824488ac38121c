package api

import (
	"time"

	"github.com/rpupo63/issue-tracker/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db *database.Database, now func() time.Time, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		issueHandler:  newIssueHandler(db.IssueRepo(), now),
		healthHandler: newHealthHandler(db, startupTime),
	}
}
