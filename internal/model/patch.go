package model

import (
	"bytes"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
)

// OptionalString distinguishes the three states a patch field can be in:
// absent, explicit null, and a value. A plain *string cannot tell absent
// apart from null, and description clearing depends on that distinction.
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Valid = false
		o.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o OptionalString) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{Type: huma.TypeString, Nullable: true}
}

// CardPatch is a partial card update. Nil (or unset) fields are left
// untouched; Description set to null clears the stored description.
type CardPatch struct {
	Title       *string        `json:"title,omitempty" required:"false"`
	Description OptionalString `json:"description,omitempty" required:"false"`
	Status      *string        `json:"status,omitempty" required:"false"`
	Priority    *int           `json:"priority,omitempty" required:"false"`
}

// Empty reports whether the patch supplies no recognized field at all.
func (p CardPatch) Empty() bool {
	return p.Title == nil && !p.Description.Set && p.Status == nil && p.Priority == nil
}
