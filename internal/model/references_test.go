package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReferenceVocabulary(t *testing.T) {
	t.Parallel()

	types := ReferenceTypes()
	require.Len(t, types, 11)
	for _, refType := range types {
		require.True(t, IsValidReferenceType(refType), refType)
		require.NotEmpty(t, ReferenceLabel(refType), refType)
		require.NotEmpty(t, InverseReferenceLabel(refType), refType)
	}

	require.False(t, IsValidReferenceType("points_at"))
	require.False(t, IsValidReferenceType(""))
	require.False(t, IsValidReferenceType("Blocks"))
}

func TestReferenceLabelPairs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		refType string
		label   string
		inverse string
	}{
		{RefBlocks, "Blocks", "Blocked by"},
		{RefBlockedBy, "Blocked by", "Blocks"},
		{RefRelatesTo, "Relates to", "Relates to"},
		{RefDuplicates, "Duplicates", "Duplicated by"},
		{RefParentOf, "Parent of", "Child of"},
		{RefChildOf, "Child of", "Parent of"},
		{RefFollows, "Follows", "Precedes"},
		{RefPrecedes, "Precedes", "Follows"},
		{RefClones, "Clones", "Cloned by"},
		{RefClonedBy, "Cloned by", "Clones"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.label, ReferenceLabel(tc.refType), tc.refType)
		require.Equal(t, tc.inverse, InverseReferenceLabel(tc.refType), tc.refType)
	}
}

func TestWebSocketEventTypesReturnsCopy(t *testing.T) {
	t.Parallel()

	first := WebSocketEventTypes()
	require.NotEmpty(t, first)
	first[0] = "mutated"

	second := WebSocketEventTypes()
	require.Equal(t, EventTypeProjectCreated, second[0])
}
