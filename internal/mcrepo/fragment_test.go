package mcrepo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTinyFragmentRoundTrip(t *testing.T) {
	t.Parallel()

	contents := map[Kind]any{
		Text: GenericContent{
			Align: 4,
			Data:  []byte{0xDE, 0xAD, 0xBE, 0xEF},
		},
	}
	raw, err := Alloc(contents)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Load(raw, true)
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", f.Size())
	}
	rd, err := f.Dispatcher(Text)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := rd.Payload()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]byte{0xDE, 0xAD, 0xBE, 0xEF}, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSparseKindsOrderedIteration(t *testing.T) {
	t.Parallel()

	contents := map[Kind]any{
		Text: GenericContent{Align: 1, Data: []byte{1, 2, 3}},
		DebugLine: DebugLineContent{
			Generic: GenericContent{Align: 1, Data: []byte{9, 9}},
		},
	}
	raw, err := Alloc(contents)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Load(raw, true)
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", f.Size())
	}
	got := f.Kinds()
	want := []Kind{Text, DebugLine}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("kind order mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyFragment(t *testing.T) {
	t.Parallel()

	raw, err := Alloc(map[Kind]any{})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Load(raw, true)
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", f.Size())
	}
}

func TestBrokenSignatureFails(t *testing.T) {
	t.Parallel()

	raw, err := Alloc(map[Kind]any{
		Text: GenericContent{Align: 1, Data: []byte{1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		raw[i] = 0
	}
	if _, err := Load(raw, true); !errors.Is(err, ErrBadFragmentRecord) {
		t.Fatalf("Load with zeroed signature: got %v, want ErrBadFragmentRecord", err)
	}
}

func TestBSSSectionTooLarge(t *testing.T) {
	t.Parallel()

	_, err := Alloc(map[Kind]any{
		BSS: BSSContent{Align: 1, Size: MaxBSSSize + 1},
	})
	if !errors.Is(err, ErrBSSSectionTooLarge) {
		t.Fatalf("got %v, want ErrBSSSectionTooLarge", err)
	}

	raw, err := Alloc(map[Kind]any{BSS: BSSContent{Align: 1, Size: MaxBSSSize}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Load(raw, true); err != nil {
		t.Fatalf("max-size bss section should load: %v", err)
	}
}

func TestLinkedDefinitionsRejectsFixupAccess(t *testing.T) {
	t.Parallel()

	raw, err := Alloc(map[Kind]any{
		LinkedDefinitions: LinkedDefinitionsContent{},
	})
	if err != nil {
		t.Fatal(err)
	}
	f, err := Load(raw, true)
	if err != nil {
		t.Fatal(err)
	}
	rd, err := f.Dispatcher(LinkedDefinitions)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rd.IFixups(); !errors.Is(err, ErrBadFragmentType) {
		t.Fatalf("IFixups on linked_definitions: got %v, want ErrBadFragmentType", err)
	}
}
