package draft_test

import (
	"testing"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/draft"
)

func TestStore_PutGet(t *testing.T) {
	store := draft.NewStore(time.Minute)

	d := &domain.Draft{Data: "2026-03-18", Metrics: map[string]int{"ligacoes": 3}}
	store.Put("user-1", d)

	got, ok := store.Get("user-1", "2026-03-18")
	if !ok {
		t.Fatal("expected draft to be found")
	}
	if got.Metrics["ligacoes"] != 3 {
		t.Errorf("draft metrics = %v", got.Metrics)
	}

	if _, ok := store.Get("user-2", "2026-03-18"); ok {
		t.Error("draft leaked across users")
	}
	if _, ok := store.Get("user-1", "2026-03-19"); ok {
		t.Error("draft leaked across dates")
	}
}

func TestStore_DeleteOnSubmit(t *testing.T) {
	store := draft.NewStore(time.Minute)
	store.Put("user-1", &domain.Draft{Data: "2026-03-18"})

	store.Delete("user-1", "2026-03-18")
	if _, ok := store.Get("user-1", "2026-03-18"); ok {
		t.Error("expected draft gone after delete")
	}
}

func TestStore_Expiry(t *testing.T) {
	store := draft.NewStore(20 * time.Millisecond)
	store.Put("user-1", &domain.Draft{Data: "2026-03-18"})

	time.Sleep(40 * time.Millisecond)
	if _, ok := store.Get("user-1", "2026-03-18"); ok {
		t.Error("expected draft expired")
	}
}
