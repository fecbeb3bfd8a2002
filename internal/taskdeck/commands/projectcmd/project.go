package projectcmd

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/taskdeck/commands/common"
)

func New(runtime common.Runtime, stdout io.Writer, handle common.HandleResponseFunc, wrapErr common.WrapErrorFunc) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "proj"},
		Short:   "Manage projects.",
		Long:    "Create and list projects.",
	}

	createCmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"new"},
		Short:   "Create a project.",
		Long:    "Create a project tracking one repository.",
		Example: strings.TrimSpace(`taskdeck project create --name "Alpha" --repo-url git@github.com:org/alpha.git
taskdeck proj new -n "Alpha" -r https://github.com/org/alpha`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			repoURL, _ := cmd.Flags().GetString("repo-url")

			body := map[string]any{
				"name":     strings.TrimSpace(name),
				"repo_url": strings.TrimSpace(repoURL),
			}
			resp, reqErr := common.Do(runtime, http.MethodPost, "/projects", nil, body)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	createCmd.Flags().StringP("name", "n", "", "Project name")
	createCmd.Flags().StringP("repo-url", "r", "", "Repository URL (unique)")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("repo-url")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects.",
		Example: strings.TrimSpace(`taskdeck project list
taskdeck proj ls --output json`),
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, reqErr := common.Do(runtime, http.MethodGet, "/projects", nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}

	getCmd := &cobra.Command{
		Use:     "get",
		Aliases: []string{"show"},
		Short:   "Get one project.",
		Example: strings.TrimSpace(`taskdeck project get --id 1
taskdeck proj show -i 1`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			if id <= 0 {
				return wrapErr(http.StatusBadRequest, "invalid --id")
			}
			resp, reqErr := common.Do(runtime, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	getCmd.Flags().Int64P("id", "i", 0, "Project id")
	_ = getCmd.MarkFlagRequired("id")

	projectCmd.AddCommand(createCmd, listCmd, getCmd)
	return projectCmd
}
