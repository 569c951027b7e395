package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"fireops/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// documentRow stores one document as a JSON blob so that the SQL backend
// keeps the same schemaless semantics as Firestore.
type documentRow struct {
	Kind      string `gorm:"primaryKey;size:64"`
	ID        string `gorm:"primaryKey;size:64"`
	Data      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return "documents" }

// SQLStore is a document store on top of gorm (sqlite or postgres).
type SQLStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewSQLStore opens the database and migrates the documents table. A DSN
// starting with postgres:// or postgresql:// selects postgres, anything
// else is treated as a sqlite path.
func NewSQLStore(dsn string, log zerolog.Logger) (*SQLStore, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sql store: %w", err)
	}
	if err := gdb.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}

	log.Info().Str("dialect", gdb.Dialector.Name()).Msg("sql document store ready")
	return &SQLStore{db: gdb, log: log}, nil
}

func (s *SQLStore) List(ctx context.Context, kind Kind, filter Filter) ([]Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, models.Unavailable(fmt.Sprintf("list %s", kind), err)
	}

	docs := []Document{}
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			s.log.Warn().Err(err).Str("kind", string(kind)).Str("id", row.ID).Msg("skipping unreadable document")
			continue
		}
		if !filter.IsZero() && !matchesFilter(doc.Fields[filter.Field], filter.Value) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *SQLStore) Get(ctx context.Context, kind Kind, id string) (Document, error) {
	row, err := s.find(s.db.WithContext(ctx), kind, id)
	if err != nil {
		return Document{}, err
	}
	doc, err := row.document()
	if err != nil {
		return Document{}, models.Unavailable(fmt.Sprintf("decode %s/%s", kind, id), err)
	}
	return doc, nil
}

func (s *SQLStore) Create(ctx context.Context, kind Kind, fields map[string]interface{}) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	data := copyFields(fields)
	data[fieldCreatedAt] = now
	data[fieldUpdatedAt] = now

	row, err := newRow(kind, id, data, now)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", models.Unavailable(fmt.Sprintf("create %s", kind), err)
	}
	return id, nil
}

func (s *SQLStore) Put(ctx context.Context, kind Kind, id string, fields map[string]interface{}) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		data := copyFields(fields)
		createdAt := now
		existing, err := s.find(tx, kind, id)
		switch {
		case err == nil:
			createdAt = existing.CreatedAt
		case !errors.Is(err, models.ErrNotFound):
			return err
		}
		data[fieldCreatedAt] = createdAt
		data[fieldUpdatedAt] = now

		row, err := newRow(kind, id, data, now)
		if err != nil {
			return err
		}
		row.CreatedAt = createdAt
		if err := tx.Save(&row).Error; err != nil {
			return models.Unavailable(fmt.Sprintf("put %s/%s", kind, id), err)
		}
		return nil
	})
}

func (s *SQLStore) Update(ctx context.Context, kind Kind, id string, fields map[string]interface{}) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, kind, id)
		if err != nil {
			return err
		}
		doc, err := row.document()
		if err != nil {
			return models.Unavailable(fmt.Sprintf("decode %s/%s", kind, id), err)
		}
		for k, v := range fields {
			doc.Fields[k] = v
		}
		doc.Fields[fieldUpdatedAt] = now

		data, err := json.Marshal(doc.Fields)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", kind, id, err)
		}
		err = tx.Model(&documentRow{}).
			Where("kind = ? AND id = ?", string(kind), id).
			Updates(map[string]interface{}{"data": string(data), "updated_at": now}).Error
		if err != nil {
			return models.Unavailable(fmt.Sprintf("update %s/%s", kind, id), err)
		}
		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, kind Kind, id string) error {
	err := s.db.WithContext(ctx).
		Where("kind = ? AND id = ?", string(kind), id).
		Delete(&documentRow{}).Error
	if err != nil {
		return models.Unavailable(fmt.Sprintf("delete %s/%s", kind, id), err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) find(tx *gorm.DB, kind Kind, id string) (documentRow, error) {
	var row documentRow
	err := tx.Where("kind = ? AND id = ?", string(kind), id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, models.NotFound(string(kind), id)
	}
	if err != nil {
		return row, models.Unavailable(fmt.Sprintf("get %s/%s", kind, id), err)
	}
	return row, nil
}

func newRow(kind Kind, id string, fields map[string]interface{}, now time.Time) (documentRow, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return documentRow{}, fmt.Errorf("encode %s/%s: %w", kind, id, err)
	}
	return documentRow{Kind: string(kind), ID: id, Data: string(data), CreatedAt: now, UpdatedAt: now}, nil
}

func (r documentRow) document() (Document, error) {
	fields := map[string]interface{}{}
	if err := json.Unmarshal([]byte(r.Data), &fields); err != nil {
		return Document{}, err
	}
	return Document{ID: r.ID, Fields: fields}, nil
}

// matchesFilter compares a JSON-decoded value against a Go filter value.
func matchesFilter(stored, want interface{}) bool {
	if s, ok := want.(string); ok {
		got, isStr := stored.(string)
		return isStr && got == s
	}
	if b, ok := want.(bool); ok {
		got, isBool := stored.(bool)
		return isBool && got == b
	}
	return reflect.DeepEqual(stored, want)
}
