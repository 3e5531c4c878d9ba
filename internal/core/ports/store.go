package ports

// CacheStore persists transformed module content between builds.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Load returns the persisted entries keyed by module identity.
	// A missing store yields an empty map.
	Load() (map[string]string, error)

	// Save replaces the persisted entries.
	Save(entries map[string]string) error
}
