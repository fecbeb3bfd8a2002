package taskdeck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Output string

const (
	OutputText Output = "text"
	OutputJSON Output = "json"
)

type cliError struct {
	status  int
	message string
	rawJSON []byte
}

func (e *cliError) Error() string {
	return e.message
}

func isValidOutput(v string) bool {
	return v == string(OutputText) || v == string(OutputJSON)
}

func FormatError(output Output, status int, message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(status)
	}

	if output == OutputJSON {
		payload := map[string]any{
			"status": status,
			"error":  msg,
		}
		raw, _ := json.Marshal(payload)
		return string(raw)
	}

	return fmt.Sprintf("error (%d): %s", status, msg)
}

func handleResponse(output Output, stdout io.Writer, resp *http.Response, reqErr error) error {
	if reqErr != nil {
		return &cliError{status: http.StatusBadGateway, message: reqErr.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &cliError{status: http.StatusInternalServerError, message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(extractErrorMessage(raw))
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if output == OutputJSON && json.Valid(raw) {
			return &cliError{status: resp.StatusCode, message: msg, rawJSON: compactJSON(raw)}
		}
		return &cliError{status: resp.StatusCode, message: msg}
	}

	if output == OutputJSON {
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" {
			_, _ = fmt.Fprintln(stdout, "{}")
			return nil
		}
		if json.Valid(raw) {
			_, _ = fmt.Fprintln(stdout, string(compactJSON(raw)))
			return nil
		}

		encoded, _ := json.Marshal(map[string]any{"result": trimmed})
		_, _ = fmt.Fprintln(stdout, string(encoded))
		return nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		_, _ = fmt.Fprintln(stdout, "ok")
		return nil
	}

	_, _ = fmt.Fprintln(stdout, trimmed)
	return nil
}

func extractErrorMessage(raw []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}

	if value, ok := obj["detail"].(string); ok && strings.TrimSpace(value) != "" {
		return value
	}
	if value, ok := obj["title"].(string); ok && strings.TrimSpace(value) != "" {
		return value
	}
	if value, ok := obj["error"].(string); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return ""
}

func compactJSON(raw []byte) []byte {
	var out bytes.Buffer
	if err := json.Compact(&out, raw); err != nil {
		return raw
	}
	return out.Bytes()
}

func asCLIError(err error, target **cliError) bool {
	e, ok := err.(*cliError)
	if !ok {
		return false
	}
	*target = e
	return true
}

func FormatWatchLine(output Output, event map[string]any) (string, error) {
	if output == OutputJSON {
		raw, err := json.Marshal(event)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	parts := make([]string, 0, 4)
	if value, ok := event["type"]; ok {
		parts = append(parts, fmt.Sprintf("type=%v", value))
	}
	if value, ok := event["project_id"]; ok {
		parts = append(parts, fmt.Sprintf("project_id=%v", value))
	}
	if value, ok := event["card_id"]; ok && fmt.Sprintf("%v", value) != "" {
		parts = append(parts, fmt.Sprintf("card_id=%v", value))
	}
	if value, ok := event["card_number"]; ok {
		parts = append(parts, fmt.Sprintf("card_number=%v", value))
	}
	if len(parts) == 0 {
		return "(event)", nil
	}

	return strings.Join(parts, " "), nil
}

func printPrimer(output Output, stdout io.Writer) error {
	executionRules := []string{
		"Prefer `--output json` for any command whose output will be parsed.",
		"Card mutations need an acting user: pass `--user` (`-u`) or set cli.user_id in the config.",
		"Updates that must not clobber concurrent edits pass `--version` with the last observed version.",
		"A 409 on update means the version is stale: re-fetch the card and retry with the current version.",
		"`watch` is long-running and must be explicitly stopped by the caller.",
	}

	commandTemplates := map[string]string{
		"list_projects":    "taskdeck --output json project ls",
		"create_project":   "taskdeck --output json project create --name \"$NAME\" --repo-url \"$URL\"",
		"create_user":      "taskdeck --output json user create --username \"$NAME\" --type human",
		"list_cards":       "taskdeck --output json card ls --project \"$PROJECT_ID\"",
		"search_cards":     "taskdeck --output json card ls --search \"$QUERY\"",
		"create_card":      "taskdeck --output json card create -p \"$PROJECT_ID\" -t \"$TITLE\" -u \"$USER_ID\"",
		"get_card":         "taskdeck --output json card get -i \"$ID\"",
		"update_card":      "taskdeck --output json card update -i \"$ID\" -s in_progress --version \"$VERSION\" -u \"$USER_ID\"",
		"comment_card":     "taskdeck --output json card comment -i \"$ID\" -b \"$BODY\" -u \"$USER_ID\"",
		"add_reference":    "taskdeck --output json card ref add -i \"$ID\" --target \"$TARGET_ID\" --type blocks",
		"list_references":  "taskdeck --output json card ref ls -i \"$ID\"",
		"card_audit_trail": "taskdeck --output json card audits -i \"$ID\"",
		"watch_events":     "taskdeck --output json watch -p \"$PROJECT_ID\"",
	}

	responseShapes := map[string]any{
		"create_project": map[string]any{
			"id":       1,
			"name":     "Alpha",
			"repo_url": "git@github.com:org/alpha.git",
		},
		"create_card": map[string]any{
			"id":          1,
			"project_id":  1,
			"card_number": 1,
			"title":       "Fix crash",
			"status":      "backlog",
			"priority":    50,
			"card_type":   "task",
			"version":     1,
		},
		"update_conflict": map[string]any{
			"status": 409,
			"detail": "version conflict: current version is 2",
		},
	}

	if output == OutputJSON {
		payload := map[string]any{
			"execution_rules":   executionRules,
			"command_templates": commandTemplates,
			"response_shapes":   responseShapes,
		}
		raw, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, string(raw))
		return nil
	}

	_, _ = fmt.Fprintln(stdout, "Execution rules:")
	for _, rule := range executionRules {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", rule)
	}
	_, _ = fmt.Fprintln(stdout, "\nCommand templates:")
	for name, tmpl := range commandTemplates {
		_, _ = fmt.Fprintf(stdout, "  %s: %s\n", name, tmpl)
	}
	return nil
}
