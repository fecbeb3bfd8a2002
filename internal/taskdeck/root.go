package taskdeck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/taskdeck/commands/cardcmd"
	"github.com/taskdeck/taskdeck/internal/taskdeck/commands/projectcmd"
	"github.com/taskdeck/taskdeck/internal/taskdeck/commands/usercmd"
)

type globalFlags struct {
	serverURL string
	output    string
	userID    int64
}

type commandRuntime struct {
	cfg *Config
}

func (r commandRuntime) ServerURL() string {
	return r.cfg.ServerURL
}

func (r commandRuntime) Output() string {
	return string(r.cfg.Output)
}

func (r commandRuntime) UserID() int64 {
	return r.cfg.UserID
}

func NewRootCommand(initial Config, stdout, stderr io.Writer) *cobra.Command {
	cfg := initial
	flags := globalFlags{
		serverURL: initial.ServerURL,
		output:    string(initial.Output),
		userID:    initial.UserID,
	}
	runtime := commandRuntime{cfg: &cfg}

	root := &cobra.Command{
		Use:   "taskdeck",
		Short: "Run the Taskdeck server and manage cards over HTTP.",
		Long: strings.TrimSpace(`taskdeck is a unified binary for:
- starting the Taskdeck backend server
- managing projects, users, and cards over the Taskdeck HTTP API

Use taskdeck help <command> for command-specific examples.

The CLI is intentionally transport-focused:
- --server-url selects the backend endpoint
- --output selects text/json formatting
- --user sets the acting user id for mutations`),
		Example: strings.TrimSpace(`taskdeck --help
taskdeck serve
taskdeck project create --name "Alpha" --repo-url https://example.com/alpha.git
taskdeck card create -p 1 -t "Fix crash" -u 1
taskdeck card update -i 1 -s in_progress --version 1 -u 1
taskdeck card ls --search "crash"
taskdeck watch -p 1
taskdeck --output json primer`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return applyGlobalFlags(&cfg, flags)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.serverURL, "server-url", flags.serverURL, "Backend API base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&flags.output, "output", flags.output, "Output format: text or json")
	root.PersistentFlags().Int64Var(&flags.userID, "user-id", flags.userID, "Default acting user id for mutations")

	root.AddCommand(newServeCommand(&cfg))
	root.AddCommand(newPrimerCommand(&cfg, stdout))
	root.AddCommand(projectcmd.New(runtime, stdout, handleResponseFromString, wrapCLIError))
	root.AddCommand(usercmd.New(runtime, stdout, handleResponseFromString, wrapCLIError))
	root.AddCommand(cardcmd.New(runtime, stdout, handleResponseFromString, wrapCLIError))
	root.AddCommand(newWatchCommand(&cfg, stdout))

	return root
}

func applyGlobalFlags(cfg *Config, flags globalFlags) error {
	output := strings.TrimSpace(flags.output)
	if !isValidOutput(output) {
		return &cliError{status: http.StatusBadRequest, message: fmt.Sprintf("invalid --output: %s", output)}
	}

	cfg.ServerURL = strings.TrimSpace(flags.serverURL)
	cfg.Output = Output(output)
	cfg.UserID = flags.userID

	if cfg.ServerURL == "" {
		return &cliError{status: http.StatusBadRequest, message: "--server-url cannot be empty"}
	}

	return nil
}

func handleResponseFromString(output string, stdout io.Writer, resp *http.Response, reqErr error) error {
	if !isValidOutput(output) {
		return &cliError{status: http.StatusBadRequest, message: fmt.Sprintf("invalid --output: %s", output)}
	}
	return handleResponse(Output(output), stdout, resp, reqErr)
}

func wrapCLIError(status int, message string) error {
	return &cliError{status: status, message: message}
}

func newPrimerCommand(cfg *Config, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "primer",
		Short: "Print concise usage guidance.",
		Long:  "Prints quick command examples and usage conventions for scripting.",
		Example: strings.TrimSpace(`taskdeck primer
taskdeck --output json primer`),
		RunE: func(_ *cobra.Command, _ []string) error {
			return printPrimer(cfg.Output, stdout)
		},
	}
}

func newWatchCommand(cfg *Config, stdout io.Writer) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"events", "stream"},
		Short:   "Stream realtime events over websocket.",
		Long:    "Connect to backend websocket and continuously print events until interrupted.",
		Example: strings.TrimSpace(`taskdeck watch
taskdeck watch --project 1
taskdeck events -p 1 --output json`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectID, _ := cmd.Flags().GetInt64("project")
			wsURL, err := BuildWebsocketURL(cfg.ServerURL, projectID)
			if err != nil {
				return &cliError{status: http.StatusBadRequest, message: err.Error()}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
			if err != nil {
				return &cliError{status: http.StatusBadGateway, message: err.Error()}
			}
			defer conn.Close()

			// Interrupts cancel context, but ReadJSON can still block until socket activity.
			// Close the connection when context is done to unblock reads immediately.
			go func() {
				<-ctx.Done()
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interrupt"),
					time.Now().Add(500*time.Millisecond),
				)
				_ = conn.Close()
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				var event map[string]any
				if err := conn.ReadJSON(&event); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return &cliError{status: http.StatusBadGateway, message: err.Error()}
				}

				line, err := FormatWatchLine(cfg.Output, event)
				if err != nil {
					return &cliError{status: http.StatusInternalServerError, message: err.Error()}
				}
				if _, err := fmt.Fprintln(stdout, line); err != nil {
					return &cliError{status: http.StatusInternalServerError, message: err.Error()}
				}
			}
		},
	}

	watchCmd.Flags().Int64P("project", "p", 0, "Optional project id filter")
	return watchCmd
}
