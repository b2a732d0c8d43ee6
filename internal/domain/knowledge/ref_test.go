package knowledge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestIndividualRefUnmarshalForms(t *testing.T) {
	id := uuid.New()
	var refs []IndividualRef
	payload := `["Alice", {"id": "` + id.String() + `"}, {"name": " Bob "}]`
	if err := json.Unmarshal([]byte(payload), &refs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("refs: want=3 got=%d", len(refs))
	}
	if refs[0].Kind() != RefKindName || refs[0].Name() != "Alice" {
		t.Fatalf("refs[0]: %+v", refs[0])
	}
	if refs[1].Kind() != RefKindID || refs[1].ID() != id {
		t.Fatalf("refs[1]: %+v", refs[1])
	}
	if refs[2].Kind() != RefKindName || refs[2].Name() != "Bob" {
		t.Fatalf("refs[2] should be trimmed: %+v", refs[2])
	}
}

func TestIndividualRefRejectsUnknownShapes(t *testing.T) {
	cases := []string{
		`[42]`,
		`[true]`,
		`[null]`,
		`[["Alice"]]`,
		`[{"id": "not-a-uuid"}]`,
		`[{"id": "` + uuid.New().String() + `", "name": "Alice"}]`,
		`[{}]`,
		`["   "]`,
	}
	for _, raw := range cases {
		var refs []IndividualRef
		err := json.Unmarshal([]byte(raw), &refs)
		if err == nil {
			t.Fatalf("expected error for %s", raw)
		}
		if !errors.Is(err, ErrInvalidRef) {
			t.Fatalf("expected ErrInvalidRef for %s, got %v", raw, err)
		}
	}
}

func TestIndividualRefValidate(t *testing.T) {
	if err := (IndividualRef{}).Validate(); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("zero ref: %v", err)
	}
	if err := RefByID(uuid.Nil).Validate(); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("nil id: %v", err)
	}
	if err := RefHandle(nil).Validate(); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("nil handle: %v", err)
	}
	ind := &Individual{Attribute: Attribute{ID: uuid.New(), Name: "Alice"}}
	ref := RefHandle(ind)
	if err := ref.Validate(); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if ref.ID() != ind.ID {
		t.Fatalf("handle id: want=%s got=%s", ind.ID, ref.ID())
	}
	if ref.Key() != RefByID(ind.ID).Key() {
		t.Fatalf("handle and id refs to the same row should share a key")
	}
}

func TestSourceDisplay(t *testing.T) {
	alice := &Individual{Attribute: Attribute{Name: "Alice"}}
	bob := &Individual{Attribute: Attribute{Name: "Bob"}}

	s := &Source{Name: "Study"}
	if got := s.Display(); got != "Study" {
		t.Fatalf("name only: %q", got)
	}
	s.Individuals = []*Individual{alice, bob}
	if got := s.Display(); got != "Study - Alice, Bob" {
		t.Fatalf("name and by: %q", got)
	}
	s.Name = ""
	if got := s.Display(); got != "Alice, Bob" {
		t.Fatalf("by only: %q", got)
	}
}

func TestIndividualFullName(t *testing.T) {
	ind := &Individual{Attribute: Attribute{Name: "J. Doe"}}
	if got := ind.FullName(); got != "J. Doe" {
		t.Fatalf("fallback: %q", got)
	}
	ind.FirstName, ind.LastName = "Jane", "Doe"
	if got := ind.FullName(); got != "Jane Doe" {
		t.Fatalf("full: %q", got)
	}
}

func TestIndividualJSONIncludesFullName(t *testing.T) {
	ind := &Individual{Attribute: Attribute{ID: uuid.New(), Name: "Twain"}, FirstName: "Mark", LastName: "Twain"}
	raw, err := json.Marshal(ind)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["full_name"] != "Mark Twain" || got["name"] != "Twain" || got["id"] != ind.ID.String() {
		t.Fatalf("unexpected json: %s", raw)
	}
}
