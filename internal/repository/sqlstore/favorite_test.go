package sqlstore

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/terrain-ouvert/datahub/internal/domain/favorite"
	"github.com/terrain-ouvert/datahub/internal/domain/publication"
	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
	"github.com/terrain-ouvert/datahub/internal/testutil"
)

func newFavoriteFixture(t *testing.T, publications int) (favorite.Repository, *DB) {
	t.Helper()
	raw := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(raw) })

	db := Wrap(raw, SQLite)
	pubs := NewPublicationRepository(db)
	for i := 0; i < publications; i++ {
		if err := pubs.Create(context.Background(), newTestPublication(i, publication.CategoryAutre, 0)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	return NewFavoriteRepository(db), db
}

func TestFavoriteRepository_ToggleInvolution(t *testing.T) {
	repo, _ := newFavoriteFixture(t, 3)
	ctx := context.Background()

	if _, err := repo.Toggle(ctx, 1, "pub-000"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	before, err := repo.IDs(ctx, 1)
	if err != nil {
		t.Fatalf("IDs() error = %v", err)
	}

	first, err := repo.Toggle(ctx, 1, "pub-002")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !first.Added || !reflect.DeepEqual(first.IDs, []string{"pub-000", "pub-002"}) {
		t.Errorf("Toggle() = %+v, want added with [pub-000 pub-002]", first)
	}

	second, err := repo.Toggle(ctx, 1, "pub-002")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if second.Added {
		t.Errorf("Toggle() twice reported added")
	}
	if !reflect.DeepEqual(second.IDs, before) {
		t.Errorf("Toggle() twice = %v, want %v", second.IDs, before)
	}
}

func TestFavoriteRepository_ToggleScopedByUser(t *testing.T) {
	repo, _ := newFavoriteFixture(t, 2)
	ctx := context.Background()

	if _, err := repo.Toggle(ctx, 1, "pub-000"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	res, err := repo.Toggle(ctx, 2, "pub-000")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !res.Added {
		t.Errorf("Toggle() for another user removed the first user's favorite")
	}

	ids, err := repo.IDs(ctx, 1)
	if err != nil {
		t.Fatalf("IDs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"pub-000"}) {
		t.Errorf("IDs() = %v, want [pub-000]", ids)
	}
}

func TestFavoriteRepository_ToggleUnknownPublication(t *testing.T) {
	repo, _ := newFavoriteFixture(t, 1)

	_, err := repo.Toggle(context.Background(), 1, "nope")
	if !errors.IsNotFound(err) {
		t.Errorf("Toggle() error = %v, want not found", err)
	}
}

func TestFavoriteRepository_ConcurrentToggles(t *testing.T) {
	repo, _ := newFavoriteFixture(t, 10)
	ctx := context.Background()

	ids := []string{"pub-000", "pub-001", "pub-002", "pub-003", "pub-004",
		"pub-005", "pub-006", "pub-007", "pub-008", "pub-009"}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := repo.Toggle(ctx, 1, id); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Toggle() error = %v", err)
	}

	got, err := repo.IDs(ctx, 1)
	if err != nil {
		t.Fatalf("IDs() error = %v", err)
	}
	if len(got) != len(ids) {
		t.Fatalf("IDs() = %v, want all %d publications exactly once", got, len(ids))
	}
	seen := make(map[string]bool)
	for _, id := range got {
		if seen[id] {
			t.Errorf("IDs() holds %s twice", id)
		}
		seen[id] = true
	}
}

func TestFavoriteRepository_DeleteDangling(t *testing.T) {
	repo, db := newFavoriteFixture(t, 2)
	ctx := context.Background()

	for _, id := range []string{"pub-000", "pub-001"} {
		if _, err := repo.Toggle(ctx, 1, id); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
	}
	if err := NewPublicationRepository(db).Delete(ctx, "pub-000"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n, err := repo.DeleteDangling(ctx)
	if err != nil {
		t.Fatalf("DeleteDangling() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteDangling() = %d, want 1", n)
	}

	ids, _ := repo.IDs(ctx, 1)
	if !reflect.DeepEqual(ids, []string{"pub-001"}) {
		t.Errorf("IDs() = %v, want [pub-001]", ids)
	}
}
