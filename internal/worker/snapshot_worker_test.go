package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"antrelay/internal/model"
)

type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) Put(ctx context.Context, name string, data []byte, contentType string, metadata map[string]string) error {
	_ = ctx
	_ = contentType
	_ = metadata
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[name] = append([]byte(nil), data...)
	return nil
}

func TestHandle_ArchivesTurnEvent(t *testing.T) {
	store := &fakeObjectStore{}
	w := NewSnapshotWorker(nil, store, "q")

	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	event := model.TurnEvent{
		SessionIdentifier: "s1",
		Question:          "hello",
		Reply:             `Hello! You asked: "hello"`,
		Mode:              "echo",
		CreatedAt:         created,
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	if err := w.handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	wantName := fmt.Sprintf("snapshots/s1/%d.json", created.UnixNano())
	data, found := store.objects[wantName]
	if !found {
		t.Fatalf("snapshot object missing, have %v", store.objects)
	}

	var stored model.TurnEvent
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if stored.Question != event.Question || stored.Reply != event.Reply || stored.Mode != event.Mode {
		t.Fatalf("snapshot does not round-trip: %+v", stored)
	}
}

func TestHandle_RejectsBadPayloads(t *testing.T) {
	w := NewSnapshotWorker(nil, &fakeObjectStore{}, "q")

	if err := w.handle(context.Background(), []byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if err := w.handle(context.Background(), []byte(`{"question":"x"}`)); err == nil {
		t.Fatal("expected error for event without session identifier")
	}
}
