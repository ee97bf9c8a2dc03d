// Package activity remembers the activity descriptions of processed
// timesheets so later runs can phrase invented gap entries the way the user
// writes them.
package activity

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks timesheet-ai/internal/activity Embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"timesheet-ai/internal/contextutil"
	"timesheet-ai/internal/timesheet"
	"timesheet-ai/internal/vectorstore"
)

// embedBatchSize bounds the number of texts sent per embeddings request.
const embedBatchSize = 32

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("timesheet-ai/activity"))

// Embedder turns texts into vectors, one per text in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Memory stores descriptions in a vector collection.
type Memory struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	vectorSize int
}

// NewMemory creates an activity memory over the given collection.
func NewMemory(embedder Embedder, store vectorstore.VectorStore, collection string, vectorSize int) *Memory {
	return &Memory{
		embedder:   embedder,
		store:      store,
		collection: collection,
		vectorSize: vectorSize,
	}
}

// Init creates the collection when it does not exist yet.
func (m *Memory) Init(ctx context.Context) error {
	return m.store.EnsureCollection(ctx, m.collection, m.vectorSize)
}

// PointID returns the stable point ID of a description. Descriptions that
// differ only in case or surrounding space share an ID.
func PointID(description string) string {
	return uuid.NewSHA1(namespace, []byte(strings.ToLower(strings.TrimSpace(description)))).String()
}

type record struct {
	description string
	project     string
	task        string
}

// collect returns the distinct descriptions of recorded (not generated)
// entries, with split markers removed, in table order.
func collect(table timesheet.Table) []record {
	seen := make(map[string]bool)
	var out []record
	for _, e := range table.Entries {
		if e.IsGenerated {
			continue
		}
		d := timesheet.StripPartSuffix(e.Description())
		if d == "" {
			continue
		}
		id := PointID(d)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, record{
			description: d,
			project:     e.Get(timesheet.FieldProject),
			task:        e.Get(timesheet.FieldTask),
		})
	}
	return out
}

// Remember embeds and stores the descriptions of the table's recorded
// entries. It returns the number of descriptions stored.
func (m *Memory) Remember(ctx context.Context, table timesheet.Table) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	records := collect(table)
	if len(records) == 0 {
		return 0, nil
	}

	for start := 0; start < len(records); start += embedBatchSize {
		batch := records[start:min(start+embedBatchSize, len(records))]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.description
		}

		vectors, err := m.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return start, fmt.Errorf("failed to embed descriptions: %w", err)
		}
		if len(vectors) != len(batch) {
			return start, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
		}

		points := make([]vectorstore.Point, len(batch))
		for i, r := range batch {
			points[i] = vectorstore.Point{
				ID:  PointID(r.description),
				Vec: vectors[i],
				Meta: map[string]any{
					"description": r.description,
					"project":     r.project,
					"task":        r.task,
				},
			}
		}

		if err := m.store.Upsert(ctx, m.collection, points); err != nil {
			return start, fmt.Errorf("failed to store descriptions: %w", err)
		}
	}

	logger.InfoContext(ctx, "activity memory updated", "collection", m.collection, "descriptions", len(records))
	return len(records), nil
}

// Similar returns up to k stored descriptions closest to text, best first.
func (m *Memory) Similar(ctx context.Context, text string, k int) ([]string, error) {
	if strings.TrimSpace(text) == "" || k <= 0 {
		return nil, nil
	}

	vectors, err := m.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}

	results, err := m.store.Search(ctx, m.collection, vectors[0], k, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}

	descriptions := make([]string, 0, len(results))
	for _, r := range results {
		if d, ok := r.Meta["description"].(string); ok && d != "" {
			descriptions = append(descriptions, d)
		}
	}
	return descriptions, nil
}
