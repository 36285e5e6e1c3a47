package store

import (
	"fmt"

	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

// Open builds the store selected by cfg.Store.Driver.
func Open(cfg *config.Config) (ports.ReviewStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite, "":
		s, err := OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.ErrConfigInvalid.
			WithMessage(fmt.Sprintf("unsupported store driver %q", cfg.Store.Driver))
	}
}
