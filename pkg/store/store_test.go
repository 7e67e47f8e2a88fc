package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/geom"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

func sampleResult(t *testing.T) *routing.Result {
	t.Helper()
	engine := routing.NewEngine(routing.WithLogger(log.New(io.Discard)))
	res, err := engine.Route(context.Background(), routing.Request{
		Trunk:     geom.R(0, 0, 10, 1),
		Terminals: []routing.Terminal{{ID: "a", Position: geom.Pt(3, 6)}},
		Step:      1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	res := sampleResult(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		run, err := NewRun("run", "hash", res)
		if err != nil {
			t.Fatal(err)
		}
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.Save(ctx, run); err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, run.ID)
	}

	got, err := s.Get(ctx, ids[1])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != ids[1] || got.Routed != 1 || got.Failed != 0 || got.Terminals != 1 {
		t.Errorf("Get returned %+v", got)
	}
	decoded, err := got.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Routes[0].Path.Len() != res.Routes[0].Path.Len() {
		t.Errorf("decoded path has %d steps, want %d", decoded.Routes[0].Path.Len(), res.Routes[0].Path.Len())
	}

	list, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var listed []string
	for _, r := range list {
		listed = append(listed, r.ID)
	}
	if diff := cmp.Diff([]string{ids[2], ids[1]}, listed); diff != "" {
		t.Errorf("List(2) mismatch (-want +got):\n%s", diff)
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 3 {
		t.Errorf("List(0) returned %d runs, want 3", len(all))
	}

	missing := "00000000-0000-4000-8000-000000000000"
	if _, err := s.Get(ctx, missing); !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("Get(missing) err = %v, want %s", err, errors.ErrCodeRunNotFound)
	}
	if err := s.Save(ctx, &Run{ID: "../escape"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save with bad id err = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestFileStoreSkipsForeignFiles(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("hi"), 0o644)
	_ = os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{"), 0o644)

	runs, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("List returned %d runs from foreign files", len(runs))
	}
	if _, err := s.Get(context.Background(), "not-a-uuid"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get(bad id) err = %v", err)
	}
}

func TestMongoDocumentMapping(t *testing.T) {
	run, err := NewRun("east", "abc", sampleResult(t))
	if err != nil {
		t.Fatal(err)
	}
	back := toDocument(run).run()
	if diff := cmp.Diff(run, back); diff != "" {
		t.Errorf("document round trip mismatch (-want +got):\n%s", diff)
	}
}
