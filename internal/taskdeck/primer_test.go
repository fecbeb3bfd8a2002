package taskdeck

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimerTextIncludesCoreTemplates(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printPrimer(OutputText, &out))
	raw := out.String()

	require.Contains(t, raw, "Execution rules:")
	require.Contains(t, raw, "taskdeck --output json")
	require.Contains(t, raw, "--version")
}

func TestPrimerJSONIncludesContractSections(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printPrimer(OutputJSON, &out))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &payload))

	commandTemplates, ok := payload["command_templates"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, commandTemplates, "create_card")
	require.Contains(t, commandTemplates, "update_card")
	require.Contains(t, commandTemplates, "search_cards")
	require.Contains(t, commandTemplates, "add_reference")
	require.Contains(t, commandTemplates, "card_audit_trail")

	responseShapes, ok := payload["response_shapes"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, responseShapes, "create_card")
	require.Contains(t, responseShapes, "update_conflict")

	rules, ok := payload["execution_rules"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, rules)
}
