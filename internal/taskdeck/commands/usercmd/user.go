package usercmd

import (
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/taskdeck/commands/common"
)

func New(runtime common.Runtime, stdout io.Writer, handle common.HandleResponseFunc, _ common.WrapErrorFunc) *cobra.Command {
	userCmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage users.",
		Long:    "Create and list users. Users are actors, human or ai, and are never deleted.",
	}

	createCmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"new"},
		Short:   "Create a user.",
		Example: strings.TrimSpace(`taskdeck user create --username simon --type human --email simon@example.com
taskdeck user new --username triage-bot --type ai`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, _ := cmd.Flags().GetString("username")
			userType, _ := cmd.Flags().GetString("type")
			email, _ := cmd.Flags().GetString("email")

			body := map[string]any{
				"username":  strings.TrimSpace(username),
				"user_type": strings.TrimSpace(userType),
			}
			if value := strings.TrimSpace(email); value != "" {
				body["email"] = value
			}
			resp, reqErr := common.Do(runtime, http.MethodPost, "/users", nil, body)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}
	createCmd.Flags().String("username", "", "Unique username")
	createCmd.Flags().String("type", "human", "User type (human|ai)")
	createCmd.Flags().String("email", "", "Optional email")
	_ = createCmd.MarkFlagRequired("username")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users.",
		Example: "taskdeck user ls --output json",
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, reqErr := common.Do(runtime, http.MethodGet, "/users", nil, nil)
			return handle(runtime.Output(), stdout, resp, reqErr)
		},
	}

	userCmd.AddCommand(createCmd, listCmd)
	return userCmd
}
