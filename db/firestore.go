package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fireops/models"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore wraps the Firestore client
type FirestoreStore struct {
	client *firestore.Client
	log    zerolog.Logger
}

// NewFirestoreStore initializes a new Firestore client
func NewFirestoreStore(ctx context.Context, projectID, credentialsPath string, logger zerolog.Logger) (*FirestoreStore, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	conf := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	logger.Info().Str("project", projectID).Msg("connected to Firestore")

	return &FirestoreStore{
		client: client,
		log:    logger,
	}, nil
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// List retrieves all documents of a collection, optionally filtered by one field.
func (s *FirestoreStore) List(ctx context.Context, kind Kind, filter Filter) ([]Document, error) {
	q := s.client.Collection(string(kind)).Query
	if !filter.IsZero() {
		q = q.Where(filter.Field, "==", filter.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	docs := []Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, models.Unavailable(fmt.Sprintf("list %s", kind), err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}

	return docs, nil
}

// Get retrieves a document by ID
func (s *FirestoreStore) Get(ctx context.Context, kind Kind, id string) (Document, error) {
	snap, err := s.client.Collection(string(kind)).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, models.NotFound(string(kind), id)
	}
	if err != nil {
		return Document{}, models.Unavailable(fmt.Sprintf("get %s/%s", kind, id), err)
	}
	return Document{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

// Create adds a document with a store-assigned ID
func (s *FirestoreStore) Create(ctx context.Context, kind Kind, fields map[string]interface{}) (string, error) {
	now := time.Now()
	data := copyFields(fields)
	data[fieldCreatedAt] = now
	data[fieldUpdatedAt] = now

	ref, _, err := s.client.Collection(string(kind)).Add(ctx, data)
	if err != nil {
		return "", models.Unavailable(fmt.Sprintf("create %s", kind), err)
	}
	s.log.Debug().Str("kind", string(kind)).Str("id", ref.ID).Msg("document created")
	return ref.ID, nil
}

// Put writes a document under a known ID. A new document gets createdAt;
// an existing one is merged and keeps its original createdAt.
func (s *FirestoreStore) Put(ctx context.Context, kind Kind, id string, fields map[string]interface{}) error {
	create, merge := putPayloads(fields, time.Now())
	ref := s.client.Collection(string(kind)).Doc(id)

	_, err := ref.Create(ctx, create)
	if status.Code(err) == codes.AlreadyExists {
		_, err = ref.Set(ctx, merge, firestore.MergeAll)
	}
	if err != nil {
		return models.Unavailable(fmt.Sprintf("put %s/%s", kind, id), err)
	}
	return nil
}

// putPayloads returns the document written when the ID is new and the
// merge applied when it already exists. Only the first carries createdAt.
func putPayloads(fields map[string]interface{}, now time.Time) (create, merge map[string]interface{}) {
	merge = copyFields(fields)
	merge[fieldUpdatedAt] = now
	create = copyFields(merge)
	create[fieldCreatedAt] = now
	return create, merge
}

// Update overwrites only the provided fields of an existing document
func (s *FirestoreStore) Update(ctx context.Context, kind Kind, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields)+1)
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	updates = append(updates, firestore.Update{Path: fieldUpdatedAt, Value: time.Now()})

	_, err := s.client.Collection(string(kind)).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return models.NotFound(string(kind), id)
	}
	if err != nil {
		return models.Unavailable(fmt.Sprintf("update %s/%s", kind, id), err)
	}
	return nil
}

// Delete deletes a document; deleting a missing ID succeeds
func (s *FirestoreStore) Delete(ctx context.Context, kind Kind, id string) error {
	_, err := s.client.Collection(string(kind)).Doc(id).Delete(ctx)
	if err != nil {
		return models.Unavailable(fmt.Sprintf("delete %s/%s", kind, id), err)
	}
	return nil
}
