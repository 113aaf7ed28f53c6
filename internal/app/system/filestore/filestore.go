// Package filestore builds the object-store adapter used for track files.
package filestore

import (
	"fmt"

	"github.com/dalemusser/waffle/pantry/storage"
)

// Config selects and configures the storage backend.
type Config struct {
	Type      string // "local"
	LocalPath string // base directory for uploaded files
	LocalURL  string // public URL prefix for locally served files
}

// New returns the storage.Store for the configured backend.
func New(cfg Config) (storage.Store, error) {
	switch cfg.Type {
	case "", "local":
		if cfg.LocalPath == "" {
			return nil, fmt.Errorf("filestore: local storage requires a path")
		}
		local, err := storage.NewLocal(storage.LocalConfig{
			BasePath: cfg.LocalPath,
			BaseURL:  cfg.LocalURL,
		})
		if err != nil {
			return nil, err
		}
		return local, nil
	default:
		return nil, fmt.Errorf("filestore: unknown storage type %q", cfg.Type)
	}
}
