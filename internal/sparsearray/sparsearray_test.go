package sparsearray

import (
	"reflect"
	"testing"
)

func TestHasIndexAndSize(t *testing.T) {
	t.Parallel()

	a, err := New[uint64, uint64]([]int{0, 14}, []uint64{100, 200})
	if err != nil {
		t.Fatal(err)
	}
	if a.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", a.Size())
	}
	for i := 0; i < 64; i++ {
		want := i == 0 || i == 14
		if got := a.HasIndex(i); got != want {
			t.Fatalf("HasIndex(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestIndicesAscending(t *testing.T) {
	t.Parallel()

	a, err := New[int, uint64]([]int{5, 1, 63, 2}, []int{50, 10, 630, 20})
	if err != nil {
		t.Fatal(err)
	}
	got := a.Indices()
	want := []int{1, 2, 5, 63}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Indices() = %v, want %v", got, want)
	}
}

func TestGetMatchesInsertionOrder(t *testing.T) {
	t.Parallel()

	a, err := New[string, uint64]([]int{3, 1}, []string{"three", "one"})
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Get(1); got != "one" {
		t.Fatalf("Get(1) = %q, want %q", got, "one")
	}
	if got := a.Get(3); got != "three" {
		t.Fatalf("Get(3) = %q, want %q", got, "three")
	}
}

func TestSingleIndexAtTop(t *testing.T) {
	t.Parallel()

	a, err := New[int, uint64]([]int{63}, []int{7})
	if err != nil {
		t.Fatal(err)
	}
	if got := a.Get(63); got != 7 {
		t.Fatalf("Get(63) = %d, want 7", got)
	}
}

func TestRejectsDuplicateAndOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := New[int, uint8]([]int{1, 1}, []int{1, 2}); err == nil {
		t.Fatal("expected error for duplicate index")
	}
	if _, err := New[int, uint8]([]int{8}, []int{1}); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestSizeBytesMatchesAllocatedInstance(t *testing.T) {
	t.Parallel()

	// SizeBytes(n) must equal sizeof(header)+(max(1,n)-1)*sizeof(V), i.e. the
	// bitmap word plus at least one value slot (the original type's header
	// already embeds that first slot; see sparsearray.go's doc comment on
	// SizeBytes). Cross-checked against an actually-allocated instance's own
	// Size() for the non-empty cases.
	const valueSize = 8 // uint64 values, as the fragment sparse index uses
	bitmapWordSize := MaxWidth[uint64]() / 8

	cases := []struct {
		name     string
		indices  []int
		values   []uint64
		wantSize int // bytes SizeBytes(len(indices), valueSize) must return
	}{
		{"empty", nil, nil, bitmapWordSize + valueSize},
		{"single", []int{5}, []uint64{1}, bitmapWordSize + valueSize},
		{"several", []int{0, 2, 14}, []uint64{1, 2, 3}, bitmapWordSize + 3*valueSize},
		{"single at top", []int{63}, []uint64{7}, bitmapWordSize + valueSize},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := New[uint64, uint64](c.indices, c.values)
			if err != nil {
				t.Fatal(err)
			}
			if a.Size() != len(c.indices) {
				t.Fatalf("Size() = %d, want %d", a.Size(), len(c.indices))
			}
			got := SizeBytes[uint64](len(c.indices), valueSize)
			if got != c.wantSize {
				t.Fatalf("SizeBytes(%d, %d) = %d, want %d", len(c.indices), valueSize, got, c.wantSize)
			}
		})
	}
}

func TestAtError(t *testing.T) {
	t.Parallel()

	a, err := New[int, uint64]([]int{0}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.At(1); err == nil {
		t.Fatal("expected error for absent index")
	}
}
