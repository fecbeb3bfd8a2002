package server_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReferenceLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	httpServer := newTestServer(t)
	projectID, userID := seedBoard(t, httpServer.URL)

	for _, title := range []string{"Source card", "Target card"} {
		resp := doJSON(t, httpServer.URL+"/cards", http.MethodPost, map[string]any{
			"project_id": projectID,
			"title":      title,
			"created_by": userID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	createResp := doJSON(t, httpServer.URL+"/cards/1/references", http.MethodPost, map[string]any{
		"target_card_id": 2,
		"ref_type":       "blocks",
	})
	require.Equal(t, http.StatusCreated, createResp.StatusCode)
	ref := decodeMap(t, createResp.Body)
	require.Equal(t, "Target card", ref["other_card_title"])
	require.Equal(t, "Blocks", ref["label"])
	refID := ref["id"].(float64)

	// Source side: outgoing edge with forward label.
	listResp := doJSON(t, httpServer.URL+"/cards/1/references", http.MethodGet, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	list := decodeMap(t, listResp.Body)
	outgoing := list["outgoing"].([]any)
	require.Len(t, outgoing, 1)
	require.Empty(t, list["incoming"].([]any))

	// Target side: same edge as incoming, labeled with the inverse.
	listResp = doJSON(t, httpServer.URL+"/cards/2/references", http.MethodGet, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	list = decodeMap(t, listResp.Body)
	incoming := list["incoming"].([]any)
	require.Len(t, incoming, 1)
	edge := incoming[0].(map[string]any)
	require.Equal(t, "Blocked by", edge["label"])
	require.Equal(t, "Source card", edge["other_card_title"])

	dupResp := doJSON(t, httpServer.URL+"/cards/1/references", http.MethodPost, map[string]any{
		"target_card_id": 2,
		"ref_type":       "blocks",
	})
	require.Equal(t, http.StatusConflict, dupResp.StatusCode)

	selfResp := doJSON(t, httpServer.URL+"/cards/1/references", http.MethodPost, map[string]any{
		"target_card_id": 1,
		"ref_type":       "relates_to",
	})
	require.Equal(t, http.StatusBadRequest, selfResp.StatusCode)

	badTypeResp := doJSON(t, httpServer.URL+"/cards/1/references", http.MethodPost, map[string]any{
		"target_card_id": 2,
		"ref_type":       "points_at",
	})
	require.Equal(t, http.StatusBadRequest, badTypeResp.StatusCode)

	ghostResp := doJSON(t, httpServer.URL+"/cards/1/references", http.MethodPost, map[string]any{
		"target_card_id": 99,
		"ref_type":       "follows",
	})
	require.Equal(t, http.StatusNotFound, ghostResp.StatusCode)

	deleteResp := doJSON(t, fmt.Sprintf("%s/cards/1/references/%d", httpServer.URL, int(refID)), http.MethodDelete, nil)
	require.Equal(t, http.StatusOK, deleteResp.StatusCode)
	require.Equal(t, true, decodeMap(t, deleteResp.Body)["deleted"])

	// Deleting through the wrong card is a 404.
	wrongResp := doJSON(t, fmt.Sprintf("%s/cards/2/references/%d", httpServer.URL, int(refID)), http.MethodDelete, nil)
	require.Equal(t, http.StatusNotFound, wrongResp.StatusCode)
}
