package drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, time.Hour), mr
}

func TestSaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "sess-1", "item-1", "half-written answer"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	content, err := store.Get(ctx, "sess-1", "item-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if content != "half-written answer" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestGetMissingDraft(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "sess-1", "item-1")
	if !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestSaveSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)

	if err := store.Save(context.Background(), "sess-1", "item-1", "draft"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if ttl := mr.TTL("draft:sess-1:item-1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestDraftExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "sess-1", "item-1", "draft")
	mr.FastForward(2 * time.Hour)

	if _, err := store.Get(ctx, "sess-1", "item-1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected draft expired, got %v", err)
	}
}

func TestEmptyContentClearsDraft(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "sess-1", "item-1", "draft")
	if err := store.Save(ctx, "sess-1", "item-1", ""); err != nil {
		t.Fatalf("clearing save failed: %v", err)
	}

	if _, err := store.Get(ctx, "sess-1", "item-1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected cleared draft, got %v", err)
	}
}

func TestDraftsAreScopedPerItem(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "sess-1", "item-1", "one")
	store.Save(ctx, "sess-1", "item-2", "two")
	store.Save(ctx, "sess-2", "item-1", "other session")

	content, _ := store.Get(ctx, "sess-1", "item-1")
	if content != "one" {
		t.Fatalf("expected draft scoped to session+item, got %q", content)
	}
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, "sess-1", "item-1", "draft")
	if err := store.Delete(ctx, "sess-1", "item-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1", "item-1"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected deleted draft, got %v", err)
	}
}
