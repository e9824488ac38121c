package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/issue-tracker/database"
	"github.com/rpupo63/issue-tracker/errs"
	"github.com/rpupo63/issue-tracker/models"
	"github.com/rpupo63/issue-tracker/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type issueHandler struct {
	responder Responder
	logger    zerolog.Logger
	issueRepo database.IssueRepo
	now       func() time.Time
}

func newIssueHandler(issueRepo database.IssueRepo, now func() time.Time) issueHandler {
	logger := log.With().Str("handlerName", "issueHandler").Logger()

	return issueHandler{
		responder: NewResponder(logger),
		logger:    logger,
		issueRepo: issueRepo,
		now:       now,
	}
}

// listIssues returns the issues of a project matching every query parameter
// @Summary List issues
// @Tags Issues
// @Produce json
// @Param project path string true "Project name"
// @Success 200 {array} models.Issue
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /api/issues/{project} [get]
func (h issueHandler) listIssues() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project := chi.URLParam(r, "project")
		logger := zerolog.Ctx(r.Context())

		filter, err := services.BuildFilter(r.URL.Query())
		if err != nil {
			// No issue carries an undeclared field or an impossible value.
			logger.Debug().Err(err).Str("project", project).Msg("filter matches nothing")
			h.responder.WriteJSON(w, []models.Issue{})
			return
		}

		issues, err := h.issueRepo.FindByProject(r.Context(), project, filter)
		if err != nil {
			h.responder.WriteError(w, errs.NewStoreUnavailableError("find issues", err))
			return
		}

		h.responder.WriteJSON(w, issues)
	}
}

// createIssue
// @Summary Create an issue
// @Tags Issues
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param project path string true "Project name"
// @Success 200 {object} models.Issue
// @Router /api/issues/{project} [post]
func (h issueHandler) createIssue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project := chi.URLParam(r, "project")

		fields, err := decodeFields(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		issue, err := services.NewIssue(project, fields, h.now())
		if errs.IsMissingRequiredFieldError(err) {
			h.responder.WriteJSON(w, IssueResult{Error: msgRequiredFieldsMissing})
			return
		}
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.issueRepo.Add(r.Context(), issue); err != nil {
			h.responder.WriteError(w, errs.NewStoreUnavailableError("create issue", err))
			return
		}

		zerolog.Ctx(r.Context()).Info().
			Str("project", project).
			Str("_id", issue.ID).
			Msg("issue created")

		h.responder.WriteJSON(w, issue)
	}
}

// updateIssue applies a partial update. Empty values leave fields unchanged.
// @Summary Update an issue
// @Tags Issues
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param project path string true "Project name"
// @Success 200 {object} IssueResult
// @Router /api/issues/{project} [put]
func (h issueHandler) updateIssue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeFields(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		update, err := services.BuildUpdate(fields, h.now())
		switch {
		case errs.IsMissingIdentifierError(err):
			h.responder.WriteJSON(w, IssueResult{Error: msgMissingID})
			return
		case errs.IsEmptyUpdateSetError(err):
			h.responder.WriteJSON(w, IssueResult{Error: msgNoUpdateFields, ID: update.ID})
			return
		case errs.IsInvalidFieldError(err):
			zerolog.Ctx(r.Context()).Debug().Err(err).Str("_id", update.ID).Msg("update rejected")
			h.responder.WriteJSON(w, IssueResult{Error: msgCouldNotUpdate, ID: update.ID})
			return
		case err != nil:
			h.responder.WriteError(w, err)
			return
		}

		err = h.issueRepo.Update(r.Context(), update.ID, update.Set)
		if errs.IsRecordNotFound(err) {
			h.responder.WriteJSON(w, IssueResult{Error: msgCouldNotUpdate, ID: update.ID})
			return
		}
		if err != nil {
			h.responder.WriteError(w, errs.NewStoreUnavailableError("update issue", err))
			return
		}

		h.responder.WriteJSON(w, IssueResult{Result: msgUpdated, ID: update.ID})
	}
}

// deleteIssue
// @Summary Delete an issue
// @Tags Issues
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param project path string true "Project name"
// @Success 200 {object} IssueResult
// @Router /api/issues/{project} [delete]
func (h issueHandler) deleteIssue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeFields(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		id, ok := fields.Identifier()
		if !ok {
			h.responder.WriteJSON(w, IssueResult{Error: msgMissingID})
			return
		}

		err = h.issueRepo.Delete(r.Context(), id)
		if errs.IsRecordNotFound(err) {
			h.responder.WriteJSON(w, IssueResult{Error: msgCouldNotDelete, ID: id})
			return
		}
		if err != nil {
			h.responder.WriteError(w, errs.NewStoreUnavailableError("delete issue", err))
			return
		}

		h.responder.WriteJSON(w, IssueResult{Result: msgDeleted, ID: id})
	}
}
