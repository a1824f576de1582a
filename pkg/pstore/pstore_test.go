package pstore

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/iamNilotpal/pstore/internal/mcrepo"
	"github.com/iamNilotpal/pstore/internal/uint128"
	"github.com/iamNilotpal/pstore/pkg/options"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	opts := options.Apply(options.WithDataDir(dir), options.WithRegionSize(4096))
	s, err := Open(filepath.Join(dir, "store.db"), opts, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndLoadFragmentRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	digest := uint128.New(0, 1)
	contents := map[mcrepo.Kind]any{
		mcrepo.Text: mcrepo.GenericContent{Align: 4, Data: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	}

	tx, err := s.Begin()
	if err != nil {
		t.Fatal(err)
	}
	extent, err := tx.AddFragment(digest, contents)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	found, ok := s.FindFragment(digest)
	if !ok || found != extent {
		t.Fatalf("FindFragment = %v, %v, want %v, true", found, ok, extent)
	}

	frag, err := s.LoadFragment(extent)
	if err != nil {
		t.Fatal(err)
	}
	disp, err := frag.Dispatcher(mcrepo.Text)
	if err != nil {
		t.Fatal(err)
	}
	payload, err := disp.Payload()
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "\xDE\xAD\xBE\xEF" {
		t.Fatalf("payload = %x, want deadbeef", payload)
	}
}

func TestRollbackFragmentNotVisible(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	digest := uint128.New(0, 2)

	tx, err := s.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.AddFragment(digest, map[mcrepo.Kind]any{
		mcrepo.Text: mcrepo.GenericContent{Align: 4, Data: []byte{1, 2, 3, 4}},
	}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	if s.Generation() != 0 {
		t.Fatalf("generation = %d, want 0 after rollback", s.Generation())
	}
}

func TestAddCompilationRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	digest := uint128.New(0, 3)

	tx, err := s.Begin()
	if err != nil {
		t.Fatal(err)
	}
	members := []mcrepo.Definition{
		{Digest: uint128.New(0, 10), Linkage: mcrepo.External, Visibility: mcrepo.Default},
	}
	extent, err := tx.AddCompilation(digest, 0, members)
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	comp, err := s.LoadCompilation(extent)
	if err != nil {
		t.Fatal(err)
	}
	if len(comp.Members) != 1 || comp.Members[0].Digest != members[0].Digest {
		t.Fatalf("loaded compilation members = %+v, want %+v", comp.Members, members)
	}
}
