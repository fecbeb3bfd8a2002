package model

// Reference types form a closed vocabulary. Every type is stored exactly as
// written on the edge; no inverse row is ever created. The inverse label is
// only used when an edge is rendered from the target card's side.
const (
	RefBlocks       = "blocks"
	RefBlockedBy    = "blocked_by"
	RefRelatesTo    = "relates_to"
	RefDuplicates   = "duplicates"
	RefDuplicatedBy = "duplicated_by"
	RefParentOf     = "parent_of"
	RefChildOf      = "child_of"
	RefFollows      = "follows"
	RefPrecedes     = "precedes"
	RefClones       = "clones"
	RefClonedBy     = "cloned_by"
)

type referenceTypeInfo struct {
	label        string
	inverseLabel string
}

var referenceTypes = map[string]referenceTypeInfo{
	RefBlocks:       {label: "Blocks", inverseLabel: "Blocked by"},
	RefBlockedBy:    {label: "Blocked by", inverseLabel: "Blocks"},
	RefRelatesTo:    {label: "Relates to", inverseLabel: "Relates to"},
	RefDuplicates:   {label: "Duplicates", inverseLabel: "Duplicated by"},
	RefDuplicatedBy: {label: "Duplicated by", inverseLabel: "Duplicates"},
	RefParentOf:     {label: "Parent of", inverseLabel: "Child of"},
	RefChildOf:      {label: "Child of", inverseLabel: "Parent of"},
	RefFollows:      {label: "Follows", inverseLabel: "Precedes"},
	RefPrecedes:     {label: "Precedes", inverseLabel: "Follows"},
	RefClones:       {label: "Clones", inverseLabel: "Cloned by"},
	RefClonedBy:     {label: "Cloned by", inverseLabel: "Clones"},
}

func IsValidReferenceType(refType string) bool {
	_, ok := referenceTypes[refType]
	return ok
}

func ReferenceTypes() []string {
	return []string{
		RefBlocks, RefBlockedBy, RefRelatesTo, RefDuplicates, RefDuplicatedBy,
		RefParentOf, RefChildOf, RefFollows, RefPrecedes, RefClones, RefClonedBy,
	}
}

// ReferenceLabel is the display label of an edge seen from its source card.
func ReferenceLabel(refType string) string {
	return referenceTypes[refType].label
}

// InverseReferenceLabel is the display label of an edge seen from its target
// card. Pure presentation; the stored edge stays single-directional.
func InverseReferenceLabel(refType string) string {
	return referenceTypes[refType].inverseLabel
}
