package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/rpupo63/issue-tracker/errs"
	"github.com/rpupo63/issue-tracker/models"
	"github.com/rpupo63/issue-tracker/services"
)

var issueFilters map[string]string

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Inspect issues directly in the store",
}

var issuesListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List a project's issues",
	Long: `List the issues of a project, optionally filtered by exact field values.

Example:
  issuetracker issues list apitest -f open=true -f assigned_to=Joe`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		for key, value := range issueFilters {
			query.Set(key, value)
		}

		filter, err := services.BuildFilter(query)
		if err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(db)

		issues, err := db.IssueRepo().FindByProject(cmd.Context(), args[0], filter)
		if err != nil {
			return fmt.Errorf("list issues: %w", err)
		}
		return ui.Issues(issues)
	},
}

var issuesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single issue by _id, whatever its project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(db)

		issue, err := db.IssueRepo().FindByID(cmd.Context(), args[0])
		if errs.IsRecordNotFound(err) {
			return fmt.Errorf("issue %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("show issue: %w", err)
		}
		return ui.Issues([]models.Issue{*issue})
	},
}

func init() {
	issuesListCmd.Flags().StringToStringVarP(&issueFilters, "filter", "f", nil, "Filter as field=value (repeatable)")

	issuesCmd.AddCommand(issuesListCmd)
	issuesCmd.AddCommand(issuesShowCmd)
	rootCmd.AddCommand(issuesCmd)
}
