// Package db is the boundary to the external document database. Every
// backend implements Store with document semantics: server-stamped
// timestamps, partial updates and idempotent deletes.
package db

import (
	"context"
	"fmt"

	"fireops/config"

	"github.com/rs/zerolog"
)

// Kind names a document collection.
type Kind string

const (
	KindClients   Kind = "clients"
	KindVisits    Kind = "visits"
	KindTasks     Kind = "corrective_tasks"
	KindUsers     Kind = "users"
	KindPasswords Kind = "passwords"
)

// Filter is an optional equality condition on one field.
type Filter struct {
	Field string
	Value interface{}
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool { return f.Field == "" }

// Where builds an equality filter.
func Where(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

// Document is one stored record.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Store is the CRUD contract consumed by the rest of the application.
// Errors other than not-found are wrapped with models.ErrStoreUnavailable.
type Store interface {
	List(ctx context.Context, kind Kind, filter Filter) ([]Document, error)
	Get(ctx context.Context, kind Kind, id string) (Document, error)
	Create(ctx context.Context, kind Kind, fields map[string]interface{}) (string, error)
	// Put writes a document under a caller-chosen id, replacing it if present.
	Put(ctx context.Context, kind Kind, id string, fields map[string]interface{}) error
	// Update overwrites only the given fields and fails with ErrNotFound if absent.
	Update(ctx context.Context, kind Kind, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, kind Kind, id string) error
	Close() error
}

const (
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// Open builds the backend selected by configuration.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendFirestore:
		return NewFirestoreStore(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath, logger)
	case config.BackendSQL:
		return NewSQLStore(cfg.Store.DSN, logger)
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case []string:
			out[k] = append([]string(nil), val...)
		case []interface{}:
			out[k] = append([]interface{}(nil), val...)
		default:
			out[k] = v
		}
	}
	return out
}
