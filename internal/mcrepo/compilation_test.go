package mcrepo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iamNilotpal/pstore/internal/addr"
	"github.com/iamNilotpal/pstore/internal/uint128"
)

func TestCompilationTwoDefinitionsRoundTrip(t *testing.T) {
	t.Parallel()

	members := []Definition{
		{
			Digest:      uint128.New(0, 1),
			FragmentExt: addr.Extent{Addr: 0x1000, Size: 48},
			NameAddress: 0x2000,
			Linkage:     External,
			Visibility:  Default,
		},
		{
			Digest:      uint128.New(0, 2),
			FragmentExt: addr.Extent{Addr: 0x3000, Size: 48},
			NameAddress: 0x4000,
			Linkage:     Internal,
			Visibility:  Hidden,
		},
	}

	raw, err := AllocCompilation(0x100, members)
	if err != nil {
		t.Fatal(err)
	}
	c, err := LoadCompilation(raw)
	if err != nil {
		t.Fatal(err)
	}
	if c.TripleNameAddress != 0x100 {
		t.Fatalf("TripleNameAddress = %v, want 0x100", c.TripleNameAddress)
	}
	if diff := cmp.Diff(members, c.Members); diff != "" {
		t.Fatalf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilationZeroMembers(t *testing.T) {
	t.Parallel()

	raw, err := AllocCompilation(0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != CompilationSizeBytes(0) {
		t.Fatalf("len(raw) = %d, want %d", len(raw), CompilationSizeBytes(0))
	}
	c, err := LoadCompilation(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Members) != 0 {
		t.Fatalf("len(Members) = %d, want 0", len(c.Members))
	}
}

func TestCompilationBadSignature(t *testing.T) {
	t.Parallel()

	raw, err := AllocCompilation(0, nil)
	if err != nil {
		t.Fatal(err)
	}
	raw[0] = 'X'
	if _, err := LoadCompilation(raw); !errors.Is(err, ErrBadCompilationRecord) {
		t.Fatalf("got %v, want ErrBadCompilationRecord", err)
	}
}

func TestLinkageAndVisibilityFieldWidths(t *testing.T) {
	t.Parallel()

	if uint64(numLinkages) > linkageField.Max()+1 {
		t.Fatalf("linkage values (%d) do not fit the 4-bit field", numLinkages)
	}
	if uint64(numVisibilities) > visibilityField.Max()+1 {
		t.Fatalf("visibility values (%d) do not fit the 2-bit field", numVisibilities)
	}
}
