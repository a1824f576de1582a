package broker

import "testing"

func TestBimapSetAndGet(t *testing.T) {
	t.Parallel()
	b := NewBimap[string, int]()
	b.Set("a", 1)
	b.Set("b", 2)

	if r, ok := b.GetRight("a"); !ok || r != 1 {
		t.Fatalf("GetRight(a) = %v, %v", r, ok)
	}
	if l, ok := b.GetLeft(2); !ok || l != "b" {
		t.Fatalf("GetLeft(2) = %v, %v", l, ok)
	}
	if b.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", b.Size())
	}
}

func TestBimapSetOverwriteDoesNotOrphanRightEntry(t *testing.T) {
	t.Parallel()
	b := NewBimap[string, int]()
	b.Set("a", 1)
	b.Set("a", 2) // same left key, new right value

	if b.PresentRight(1) {
		t.Fatal("stale right entry for 1 should have been erased")
	}
	if r, ok := b.GetRight("a"); !ok || r != 2 {
		t.Fatalf("GetRight(a) = %v, %v, want 2", r, ok)
	}
	if b.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", b.Size())
	}
}

func TestBimapSetOverwriteDoesNotOrphanLeftEntry(t *testing.T) {
	t.Parallel()
	b := NewBimap[string, int]()
	b.Set("a", 1)
	b.Set("b", 1) // same right value, new left key

	if b.PresentLeft("a") {
		t.Fatal("stale left entry for a should have been erased")
	}
	if l, ok := b.GetLeft(1); !ok || l != "b" {
		t.Fatalf("GetLeft(1) = %v, %v, want b", l, ok)
	}
}

func TestBimapErase(t *testing.T) {
	t.Parallel()
	b := NewBimap[string, int]()
	b.Set("a", 1)
	b.EraseLeft("a")
	if b.PresentLeft("a") || b.PresentRight(1) {
		t.Fatal("both sides should be gone after EraseLeft")
	}
	if b.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", b.Size())
	}
}
