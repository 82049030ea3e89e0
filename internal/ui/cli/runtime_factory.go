package cli

import (
	coreapp "codeinspector/internal/core/app"
	"codeinspector/internal/core/config"
)

// appFactory builds the App a run drives. Tests swap in apps without a
// history database.
type appFactory interface {
	New(cfg *config.Config) (*coreapp.App, error)
}

type coreAppFactory struct{}

func (coreAppFactory) New(cfg *config.Config) (*coreapp.App, error) {
	return coreapp.New(cfg)
}
