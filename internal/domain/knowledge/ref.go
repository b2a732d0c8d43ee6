package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RefKind tags which form an IndividualRef carries.
type RefKind uint8

const (
	RefKindInvalid RefKind = iota
	RefKindID
	RefKindName
	RefKindHandle
)

func (k RefKind) String() string {
	switch k {
	case RefKindID:
		return "id"
	case RefKindName:
		return "name"
	case RefKindHandle:
		return "handle"
	default:
		return "invalid"
	}
}

// ErrInvalidRef is returned for a reference that is none of the known forms.
var ErrInvalidRef = errors.New("invalid individual reference")

// IndividualRef points at an individual by id, by display name, or by an
// already loaded row. Build one with RefByID, RefByName or RefHandle; the zero
// value is invalid.
type IndividualRef struct {
	kind   RefKind
	id     uuid.UUID
	name   string
	handle *Individual
}

func RefByID(id uuid.UUID) IndividualRef { return IndividualRef{kind: RefKindID, id: id} }

func RefByName(name string) IndividualRef {
	return IndividualRef{kind: RefKindName, name: strings.TrimSpace(name)}
}

func RefHandle(ind *Individual) IndividualRef { return IndividualRef{kind: RefKindHandle, handle: ind} }

// RefsByName is a convenience for the common all-names case.
func RefsByName(names ...string) []IndividualRef {
	out := make([]IndividualRef, 0, len(names))
	for _, n := range names {
		out = append(out, RefByName(n))
	}
	return out
}

func RefsByID(ids ...uuid.UUID) []IndividualRef {
	out := make([]IndividualRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, RefByID(id))
	}
	return out
}

func (r IndividualRef) Kind() RefKind { return r.kind }

// ID returns the referenced id for id and handle refs.
func (r IndividualRef) ID() uuid.UUID {
	switch r.kind {
	case RefKindID:
		return r.id
	case RefKindHandle:
		if r.handle != nil {
			return r.handle.ID
		}
	}
	return uuid.Nil
}

func (r IndividualRef) Name() string { return r.name }

func (r IndividualRef) Handle() *Individual { return r.handle }

// Validate reports ErrInvalidRef for the zero value and for refs whose
// payload is empty.
func (r IndividualRef) Validate() error {
	switch r.kind {
	case RefKindID:
		if r.id == uuid.Nil {
			return fmt.Errorf("%w: nil id", ErrInvalidRef)
		}
	case RefKindName:
		if r.name == "" {
			return fmt.Errorf("%w: blank name", ErrInvalidRef)
		}
	case RefKindHandle:
		if r.handle == nil || r.handle.ID == uuid.Nil {
			return fmt.Errorf("%w: unsaved individual", ErrInvalidRef)
		}
	default:
		return ErrInvalidRef
	}
	return nil
}

// Key identifies the ref for de-duplication: equal keys resolve to the same
// individual.
func (r IndividualRef) Key() string {
	switch r.kind {
	case RefKindID, RefKindHandle:
		return "id:" + r.ID().String()
	case RefKindName:
		return "name:" + r.name
	default:
		return ""
	}
}

func (r IndividualRef) String() string {
	switch r.kind {
	case RefKindName:
		return r.name
	case RefKindHandle:
		if r.handle != nil && r.handle.Name != "" {
			return r.handle.Name
		}
		return r.ID().String()
	case RefKindID:
		return r.id.String()
	default:
		return "<invalid>"
	}
}

// UnmarshalJSON accepts "name", {"id": "<uuid>"} or {"name": "..."}.
// Any other JSON shape decodes to an invalid ref and an error.
func (r *IndividualRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidRef
	}
	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*r = RefByName(name)
		return r.Validate()
	case '{':
		var obj struct {
			ID   *string `json:"id"`
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.ID != nil && obj.Name == nil:
			id, err := uuid.Parse(strings.TrimSpace(*obj.ID))
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidRef, err)
			}
			*r = RefByID(id)
		case obj.Name != nil && obj.ID == nil:
			*r = RefByName(*obj.Name)
		default:
			return fmt.Errorf("%w: object needs exactly one of id or name", ErrInvalidRef)
		}
		return r.Validate()
	default:
		return fmt.Errorf("%w: unsupported json value %s", ErrInvalidRef, truncate(string(data), 32))
	}
}

func (r IndividualRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RefKindName:
		return json.Marshal(r.name)
	case RefKindID, RefKindHandle:
		return json.Marshal(map[string]string{"id": r.ID().String()})
	default:
		return nil, ErrInvalidRef
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
