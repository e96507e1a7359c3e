package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/platform/db"
)

func ptr[T any](v T) *T { return &v }

func newSQLiteStore(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLite(conn)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": newSQLiteStore(t),
	}
}

func sampleLead(created time.Time) domain.Lead {
	lead := domain.NewLead(created)
	lead.Name = ptr("Jane Doe")
	lead.Email = ptr("jane@acme.com")
	lead.Intent = ptr(domain.IntentWarm)
	lead.CompanySize = ptr("51-200")
	return lead
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 4, 2, 10, 30, 0, 123456789, time.UTC)

	for name, store := range stores(t) {
		lead := sampleLead(created)
		if _, err := store.Save(ctx, lead); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}

		got, err := store.Load(ctx, lead.ID)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if got.ID != lead.ID || *got.Name != "Jane Doe" || *got.Intent != domain.IntentWarm || *got.ConfidenceScore != 50 {
			t.Fatalf("%s: unexpected lead %+v", name, got)
		}
		if got.Role != nil || got.Industry != nil {
			t.Fatalf("%s: unset fields must stay nil", name)
		}
		if !got.CreatedAt.Equal(created) {
			t.Fatalf("%s: created_at %v, want %v", name, got.CreatedAt, created)
		}

		got.Industry = ptr("Retail")
		got.UpdatedAt = created.Add(time.Minute)
		if _, err := store.Save(ctx, got); err != nil {
			t.Fatalf("%s: update: %v", name, err)
		}
		again, _ := store.Load(ctx, lead.ID)
		if again.Industry == nil || *again.Industry != "Retail" {
			t.Fatalf("%s: update not persisted", name)
		}
	}
}

func TestStoreLoadMissing(t *testing.T) {
	for name, store := range stores(t) {
		if _, err := store.Load(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			lead := sampleLead(base.Add(time.Duration(i) * time.Hour))
			if i == 1 {
				lead.Industry = ptr("Technology")
			}
			if _, err := store.Save(ctx, lead); err != nil {
				t.Fatalf("%s: save: %v", name, err)
			}
			ids = append(ids, lead.ID)
		}

		all, err := store.List(ctx, ListParams{})
		if err != nil {
			t.Fatalf("%s: list: %v", name, err)
		}
		if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
			t.Fatalf("%s: unexpected order", name)
		}

		missing, _ := store.List(ctx, ListParams{MissingIndustry: true})
		if len(missing) != 2 {
			t.Fatalf("%s: expected 2 leads without industry, got %d", name, len(missing))
		}

		page, _ := store.List(ctx, ListParams{Limit: 1, Offset: 1})
		if len(page) != 1 || page[0].ID != ids[1] {
			t.Fatalf("%s: unexpected page", name)
		}
	}
}

func TestStoreRelations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 5, 12, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		lead := sampleLead(now)
		if _, err := store.Save(ctx, lead); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}

		for i, transcript := range []string{"first", "second"} {
			_, err := store.CreateConversation(ctx, domain.Conversation{
				ID:         uuid.New(),
				LeadID:     lead.ID,
				Transcript: transcript,
				AudioURL:   ptr("conversation-audio/a.webm"),
				CreatedAt:  now.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				t.Fatalf("%s: create conversation: %v", name, err)
			}
		}
		convs, err := store.ListConversations(ctx, lead.ID)
		if err != nil || len(convs) != 2 || convs[0].Transcript != "second" {
			t.Fatalf("%s: unexpected conversations %+v (%v)", name, convs, err)
		}

		_, err = store.CreateEnrichment(ctx, domain.Enrichment{
			ID:         uuid.New(),
			LeadID:     lead.ID,
			Provider:   "synthesized",
			RawPayload: []byte(`{"name":"acme"}`),
			Status:     domain.EnrichmentStatusSynthesized,
			CreatedAt:  now,
		})
		if err != nil {
			t.Fatalf("%s: create enrichment: %v", name, err)
		}
		enrs, err := store.ListEnrichments(ctx, lead.ID)
		if err != nil || len(enrs) != 1 || string(enrs[0].RawPayload) != `{"name":"acme"}` {
			t.Fatalf("%s: unexpected enrichments %+v (%v)", name, enrs, err)
		}
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	lead := sampleLead(time.Now())
	_, _ = store.Save(ctx, lead)

	*lead.Name = "mutated"
	got, _ := store.Load(ctx, lead.ID)
	if *got.Name != "Jane Doe" {
		t.Fatalf("store shares memory with caller")
	}
}
