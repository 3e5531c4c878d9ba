package ports

import "go.trai.ch/knit/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the build options from the given file.
	// It returns domain.ErrConfigNotFound when the file does not exist.
	Load(path string) (*domain.BuildOptions, error)
}
