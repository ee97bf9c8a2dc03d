package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks timesheet-ai/internal/vectorstore VectorStore

import "context"

// Point is a stored vector with its payload.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is one hit of a similarity search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore stores activity vectors and finds the closest ones.
type VectorStore interface {
	// Upsert inserts or replaces points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k points closest to query. Every filter entry must
	// match the payload value exactly.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]string) ([]SearchResult, error)

	// EnsureCollection creates the collection when missing and checks its
	// vector size otherwise.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}
