package cardcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/taskdeck/commands/common"
)

func New(runtime common.Runtime, stdout io.Writer, handle common.HandleResponseFunc, wrapErr common.WrapErrorFunc) *cobra.Command {
	cardCmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"cards"},
		Short:   "Manage cards.",
		Long:    "Create, list, get, update, comment on, and link cards.",
	}

	createCmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"new"},
		Short:   "Create a card.",
		Long:    "Create a card in a project. Status, priority, and type fall back to backlog/50/task.",
		Example: strings.TrimSpace(`taskdeck card create --project 1 --title "Fix crash" --user 1
taskdeck cards new -p 1 -t "Fix crash" --type bug --priority 80 -u 1`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, _ := cmd.Flags().GetInt64("project")
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			status, _ := cmd.Flags().GetString("status")
			cardType, _ := cmd.Flags().GetString("type")
			userID := actingUser(cmd, runtime)
			if userID <= 0 {
				return wrapErr(http.StatusBadRequest, "acting user required: pass --user or set cli.user_id")
			}

			body := map[string]any{
				"project_id": projectID,
				"title":      strings.TrimSpace(title),
				"created_by": userID,
			}
			if value := strings.TrimSpace(description); value != "" {
				body["description"] = value
			}
			if value := strings.TrimSpace(status); value != "" {
				body["status"] = value
			}
			if value := strings.TrimSpace(cardType); value != "" {
				body["card_type"] = value
			}
			if cmd.Flags().Changed("priority") {
				priority, _ := cmd.Flags().GetInt("priority")
				body["priority"] = priority
			}

			resp, reqErr := common.Do(runtime, http.MethodPost, "/cards", nil, body)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	createCmd.Flags().Int64P("project", "p", 0, "Project id")
	createCmd.Flags().StringP("title", "t", "", "Card title")
	createCmd.Flags().StringP("description", "d", "", "Card description")
	createCmd.Flags().StringP("status", "s", "", "Card status")
	createCmd.Flags().String("type", "", "Card type (story|bug|task|epic|spike|chore)")
	createCmd.Flags().Int("priority", 0, "Priority 0-100")
	createCmd.Flags().Int64P("user", "u", 0, "Acting user id")
	_ = createCmd.MarkFlagRequired("project")
	_ = createCmd.MarkFlagRequired("title")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List or search cards.",
		Long:    "Filtered listing, or ranked full-text search. With --search the other filters are ignored by the backend.",
		Example: strings.TrimSpace(`taskdeck card ls --project 1 --status backlog
taskdeck cards ls --search "crash"`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			for _, name := range []string{"id", "project", "priority"} {
				if cmd.Flags().Changed(name) {
					value, _ := cmd.Flags().GetInt64(name)
					key := name
					if name == "project" {
						key = "project_id"
					}
					query.Set(key, strconv.FormatInt(value, 10))
				}
			}
			if status, _ := cmd.Flags().GetString("status"); strings.TrimSpace(status) != "" {
				query.Set("status", strings.TrimSpace(status))
			}
			if cardType, _ := cmd.Flags().GetString("type"); strings.TrimSpace(cardType) != "" {
				query.Set("card_type", strings.TrimSpace(cardType))
			}
			if search, _ := cmd.Flags().GetString("search"); strings.TrimSpace(search) != "" {
				query.Set("search", strings.TrimSpace(search))
			}

			resp, reqErr := common.Do(runtime, http.MethodGet, "/cards", query, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	listCmd.Flags().Int64("id", 0, "Exact card id")
	listCmd.Flags().Int64P("project", "p", 0, "Project id")
	listCmd.Flags().StringP("status", "s", "", "Status filter")
	listCmd.Flags().String("type", "", "Card type filter")
	listCmd.Flags().Int64("priority", 0, "Exact priority filter")
	listCmd.Flags().String("search", "", "Full-text search over title and description")

	getCmd := &cobra.Command{
		Use:     "get",
		Aliases: []string{"show"},
		Short:   "Get one card.",
		Example: strings.TrimSpace(`taskdeck card get --id 1
taskdeck cards show -i 1 --output json`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			resp, reqErr := common.Do(runtime, http.MethodGet, fmt.Sprintf("/cards/%d", id), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	getCmd.Flags().Int64P("id", "i", 0, "Card id")
	_ = getCmd.MarkFlagRequired("id")

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update card fields.",
		Long: strings.TrimSpace(`Patch title, description, status, or priority. Pass --version with the
last observed version to detect concurrent edits; a 409 means re-fetch and
retry. --clear-description sets the description to null.`),
		Example: strings.TrimSpace(`taskdeck card update --id 1 --status in_progress --version 1 --user 1
taskdeck card update -i 1 --priority 90 --clear-description -u 1`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			userID := actingUser(cmd, runtime)
			if userID <= 0 {
				return wrapErr(http.StatusBadRequest, "acting user required: pass --user or set cli.user_id")
			}

			body := map[string]any{"changed_by": userID}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				body["title"] = strings.TrimSpace(title)
			}
			clearDescription, _ := cmd.Flags().GetBool("clear-description")
			switch {
			case clearDescription:
				body["description"] = json.RawMessage("null")
			case cmd.Flags().Changed("description"):
				description, _ := cmd.Flags().GetString("description")
				body["description"] = description
			}
			if cmd.Flags().Changed("status") {
				status, _ := cmd.Flags().GetString("status")
				body["status"] = strings.TrimSpace(status)
			}
			if cmd.Flags().Changed("priority") {
				priority, _ := cmd.Flags().GetInt("priority")
				body["priority"] = priority
			}
			if cmd.Flags().Changed("version") {
				version, _ := cmd.Flags().GetInt64("version")
				body["version"] = version
			}

			resp, reqErr := common.Do(runtime, http.MethodPatch, fmt.Sprintf("/cards/%d", id), nil, body)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	updateCmd.Flags().Int64P("id", "i", 0, "Card id")
	updateCmd.Flags().StringP("title", "t", "", "New title")
	updateCmd.Flags().StringP("description", "d", "", "New description")
	updateCmd.Flags().Bool("clear-description", false, "Clear the description")
	updateCmd.Flags().StringP("status", "s", "", "New status")
	updateCmd.Flags().Int("priority", 0, "New priority 0-100")
	updateCmd.Flags().Int64("version", 0, "Last observed version for conflict detection")
	updateCmd.Flags().Int64P("user", "u", 0, "Acting user id")
	_ = updateCmd.MarkFlagRequired("id")

	commentCmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"note"},
		Short:   "Add a comment.",
		Example: strings.TrimSpace(`taskdeck card comment --id 1 --body "Need review" --user 1
taskdeck cards note -i 1 -b "LGTM" -u 2`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			bodyRaw, _ := cmd.Flags().GetString("body")
			userID := actingUser(cmd, runtime)
			if userID <= 0 {
				return wrapErr(http.StatusBadRequest, "acting user required: pass --user or set cli.user_id")
			}

			body := map[string]any{
				"message":   strings.TrimSpace(bodyRaw),
				"author_id": userID,
			}
			resp, reqErr := common.Do(runtime, http.MethodPost, fmt.Sprintf("/cards/%d/comments", id), nil, body)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	commentCmd.Flags().Int64P("id", "i", 0, "Card id")
	commentCmd.Flags().StringP("body", "b", "", "Comment message")
	commentCmd.Flags().Int64P("user", "u", 0, "Acting user id")
	_ = commentCmd.MarkFlagRequired("id")
	_ = commentCmd.MarkFlagRequired("body")

	commentsCmd := &cobra.Command{
		Use:     "comments",
		Short:   "List card comments.",
		Example: "taskdeck card comments -i 1",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			resp, reqErr := common.Do(runtime, http.MethodGet, fmt.Sprintf("/cards/%d/comments", id), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	commentsCmd.Flags().Int64P("id", "i", 0, "Card id")
	_ = commentsCmd.MarkFlagRequired("id")

	uncommentCmd := &cobra.Command{
		Use:     "uncomment",
		Short:   "Soft-delete a comment.",
		Long:    "Flips the comment status to deleted. The message stays retrievable.",
		Example: "taskdeck card uncomment --comment 3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			commentID, _ := cmd.Flags().GetInt64("comment")
			resp, reqErr := common.Do(runtime, http.MethodDelete, fmt.Sprintf("/comments/%d", commentID), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	uncommentCmd.Flags().Int64("comment", 0, "Comment id")
	_ = uncommentCmd.MarkFlagRequired("comment")

	auditsCmd := &cobra.Command{
		Use:     "audits",
		Aliases: []string{"history"},
		Short:   "Show the card audit trail.",
		Example: "taskdeck card audits -i 1 --output json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			resp, reqErr := common.Do(runtime, http.MethodGet, fmt.Sprintf("/cards/%d/audits", id), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	auditsCmd.Flags().Int64P("id", "i", 0, "Card id")
	_ = auditsCmd.MarkFlagRequired("id")

	cardCmd.AddCommand(createCmd, listCmd, getCmd, updateCmd, commentCmd, commentsCmd, uncommentCmd, auditsCmd, newRefCommand(runtime, stdout, handle, wrapErr))
	return cardCmd
}

func newRefCommand(runtime common.Runtime, stdout io.Writer, handle common.HandleResponseFunc, _ common.WrapErrorFunc) *cobra.Command {
	refCmd := &cobra.Command{
		Use:     "ref",
		Aliases: []string{"refs", "reference"},
		Short:   "Manage card references.",
		Long:    "Typed directed edges between cards. Inverse labels are display-only; no inverse row is stored.",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a reference.",
		Example: strings.TrimSpace(`taskdeck card ref add --id 1 --target 2 --type blocks
taskdeck card ref add -i 4 --target 2 --type duplicates`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			target, _ := cmd.Flags().GetInt64("target")
			refType, _ := cmd.Flags().GetString("type")

			body := map[string]any{
				"target_card_id": target,
				"ref_type":       strings.TrimSpace(refType),
			}
			resp, reqErr := common.Do(runtime, http.MethodPost, fmt.Sprintf("/cards/%d/references", id), nil, body)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	addCmd.Flags().Int64P("id", "i", 0, "Source card id")
	addCmd.Flags().Int64("target", 0, "Target card id")
	addCmd.Flags().String("type", "", "Reference type")
	_ = addCmd.MarkFlagRequired("id")
	_ = addCmd.MarkFlagRequired("target")
	_ = addCmd.MarkFlagRequired("type")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List references in both directions.",
		Example: "taskdeck card ref ls -i 1",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			resp, reqErr := common.Do(runtime, http.MethodGet, fmt.Sprintf("/cards/%d/references", id), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	listCmd.Flags().Int64P("id", "i", 0, "Card id")
	_ = listCmd.MarkFlagRequired("id")

	rmCmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   "Delete a reference.",
		Example: "taskdeck card ref rm -i 1 --ref 7",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			refID, _ := cmd.Flags().GetInt64("ref")
			resp, reqErr := common.Do(runtime, http.MethodDelete, fmt.Sprintf("/cards/%d/references/%d", id, refID), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	rmCmd.Flags().Int64P("id", "i", 0, "Source card id")
	rmCmd.Flags().Int64("ref", 0, "Reference id")
	_ = rmCmd.MarkFlagRequired("id")
	_ = rmCmd.MarkFlagRequired("ref")

	refCmd.AddCommand(addCmd, listCmd, rmCmd)
	return refCmd
}

func actingUser(cmd *cobra.Command, runtime common.Runtime) int64 {
	if cmd.Flags().Changed("user") {
		id, _ := cmd.Flags().GetInt64("user")
		return id
	}
	return runtime.UserID()
}
