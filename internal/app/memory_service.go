package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	ErrMemoryNotConfigured = errors.New("memory storage not configured")
	ErrMissingTopic        = errors.New("missing topic")
)

const (
	memoryPrefix   = "memories/"
	manifestObject = "memory-index.json"
)

// ObjectStore is the object-storage capability the memory module needs.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string, metadata map[string]string) error
	Get(ctx context.Context, name string) ([]byte, bool, error)
}

// MemoryService persists free-form memory blobs into object storage,
// chunked when oversized, and maintains a JSON manifest of every stored
// file. store may be nil when object storage is unconfigured.
type MemoryService struct {
	store        ObjectStore
	maxFileBytes int
	expiryDays   int
}

type MemoryInput struct {
	SessionIdentifier string
	Topic             string
	Content           string
}

type manifestEntry struct {
	File        string `json:"file"`
	UpdatedTime string `json:"updated_time"`
}

func NewMemoryService(store ObjectStore, maxFileBytes, expiryDays int) *MemoryService {
	if maxFileBytes <= 0 {
		maxFileBytes = 1048576
	}
	if expiryDays <= 0 {
		expiryDays = 30
	}
	return &MemoryService{
		store:        store,
		maxFileBytes: maxFileBytes,
		expiryDays:   expiryDays,
	}
}

// Upsert writes a memory blob keyed by "<session>:<topic>". Content larger
// than the file-size ceiling is split into ".partN.txt" objects; the
// manifest gets one entry per stored file.
func (s *MemoryService) Upsert(ctx context.Context, input MemoryInput) error {
	if s.store == nil {
		return ErrMemoryNotConfigured
	}
	if input.SessionIdentifier == "" {
		return ErrMissingSessionIdentifier
	}
	if input.Topic == "" {
		return ErrMissingTopic
	}

	key := input.SessionIdentifier + ":" + input.Topic
	now := time.Now().UTC().Format(time.RFC3339)
	metadata := map[string]string{
		"type":               "memory",
		"topic":              input.Topic,
		"session_identifier": input.SessionIdentifier,
		"expires_at":         time.Now().UTC().AddDate(0, 0, s.expiryDays).Format(time.RFC3339),
	}

	index, err := s.readManifest(ctx)
	if err != nil {
		return err
	}

	content := []byte(input.Content)
	if len(content) > s.maxFileBytes {
		parts := (len(content) + s.maxFileBytes - 1) / s.maxFileBytes
		for i := 0; i < parts; i++ {
			start := i * s.maxFileBytes
			end := start + s.maxFileBytes
			if end > len(content) {
				end = len(content)
			}
			name := fmt.Sprintf("%s.part%d.txt", key, i+1)
			if err := s.store.Put(ctx, memoryPrefix+name, content[start:end], "text/plain", metadata); err != nil {
				return err
			}
			index[fmt.Sprintf("%s#%d", key, i+1)] = manifestEntry{File: name, UpdatedTime: now}
		}
	} else {
		name := key + ".txt"
		if err := s.store.Put(ctx, memoryPrefix+name, content, "text/plain", metadata); err != nil {
			return err
		}
		index[key] = manifestEntry{File: name, UpdatedTime: now}
	}

	return s.writeManifest(ctx, index)
}

func (s *MemoryService) readManifest(ctx context.Context) (map[string]manifestEntry, error) {
	raw, found, err := s.store.Get(ctx, manifestObject)
	if err != nil {
		return nil, err
	}
	index := map[string]manifestEntry{}
	if !found || len(raw) == 0 {
		return index, nil
	}
	if err := json.Unmarshal(raw, &index); err != nil {
		// A corrupt manifest is rebuilt rather than blocking new writes.
		log.Printf("memory manifest unreadable, starting fresh: %v", err)
		return map[string]manifestEntry{}, nil
	}
	return index, nil
}

func (s *MemoryService) writeManifest(ctx context.Context, index map[string]manifestEntry) error {
	payload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("marshal memory manifest failed: %w", err)
	}
	return s.store.Put(ctx, manifestObject, payload, "application/json", nil)
}
