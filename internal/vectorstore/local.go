package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"waypoint/pkg/models"
)

// entry is one indexed document with its vector.
type entry struct {
	ServerName string    `json:"server_name"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
}

// indexFile is the on-disk layout. Entries do not record which embedding
// model produced them; changing the model requires a rebuild.
type indexFile struct {
	Entries []entry `json:"entries"`
}

// LocalStore is a file-backed routing index: vectors live in memory and
// are persisted as JSON at the configured path on every Replace. The scale
// is one document per configured server, so a linear cosine scan is
// deliberately the whole search strategy.
type LocalStore struct {
	path     string
	embedder Embedder

	mu      sync.RWMutex
	entries []entry
}

// NewLocalStore opens (or lazily creates) the index file at path.
func NewLocalStore(path string, embedder Embedder) (*LocalStore, error) {
	s := &LocalStore{path: path, embedder: embedder}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index %s: %w", s.path, err)
	}
	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("corrupt index %s: %w", s.path, err)
	}
	s.entries = file.Entries
	return nil
}

// Replace embeds docs and swaps the index wholesale. Nothing is committed
// on embedding or write failure; the previous index stays live.
func (s *LocalStore) Replace(ctx context.Context, docs []models.RoutingDocument) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed routing documents: %w", err)
		}
		if len(vectors) != len(docs) {
			return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
		}
	}

	entries := make([]entry, len(docs))
	for i, doc := range docs {
		entries[i] = entry{
			ServerName: doc.ServerName,
			Content:    doc.Content,
			Embedding:  vectors[i],
		}
	}

	if err := s.persist(entries); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// persist writes atomically: temp file in the same directory, then rename.
func (s *LocalStore) persist(entries []entry) error {
	data, err := json.Marshal(indexFile{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".waypoint-index-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Search embeds the query and returns the top-k documents by cosine
// similarity, best first.
func (s *LocalStore) Search(ctx context.Context, query string, k int) ([]Match, error) {
	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()

	if len(entries) == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec := vectors[0]

	matches := make([]Match, 0, len(entries))
	for _, e := range entries {
		matches = append(matches, Match{
			Document: models.RoutingDocument{ServerName: e.ServerName, Content: e.Content},
			Score:    cosine(queryVec, e.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Len reports the number of indexed documents.
func (s *LocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
