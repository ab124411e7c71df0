// Package handlers contains the gin HTTP handlers for the catalog service.
package handlers

import (
	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/storage"
	"github.com/ferredist/catalog-service/internal/store"
)

// Handlers bundles the service dependencies the HTTP layer needs.
type Handlers struct {
	store     store.Store
	engine    *reconcile.Engine
	uploads   storage.Storage
	uploadKey string
	storeMode store.Mode
}

// New wires the handler set to its backing components.
func New(s store.Store, engine *reconcile.Engine, uploads storage.Storage, uploadKey string, mode store.Mode) *Handlers {
	return &Handlers{
		store:     s,
		engine:    engine,
		uploads:   uploads,
		uploadKey: uploadKey,
		storeMode: mode,
	}
}
