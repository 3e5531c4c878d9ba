package ports

// Hasher defines the interface for computing content hashes.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Hash returns a fixed-width hex digest of the given parts.
	// Parts are separated so that ("ab", "c") and ("a", "bc") differ.
	Hash(parts ...string) string
}
