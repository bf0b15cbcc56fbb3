// Package registry persists schema documents so records can be encoded and
// decoded by schema ID. Documents are stored verbatim in pebble and
// recompiled on read; the compiled layout is never persisted.
package registry

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/bitrec/bitrec/pkg/schema"
)

// ErrSchemaNotFound is reported when an ID has no stored document.
var ErrSchemaNotFound = errors.New("schema not found")

// Registry is a pebble-backed schema store. IDs are ksuids, so listing
// returns schemas in creation order.
type Registry struct {
	db *pebble.DB
}

// Open opens (or creates) a registry at path.
func Open(path string) (*Registry, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	return &Registry{db: db}, nil
}

// Create compiles and stores a schema document, returning its new ID. The
// document is validated by compilation before anything is written.
func (r *Registry) Create(doc []byte) (ksuid.KSUID, error) {
	if _, err := schema.Parse(doc); err != nil {
		return ksuid.Nil, err
	}

	id := ksuid.New()
	if err := r.db.Set(id.Bytes(), doc, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("failed to store schema: %w", err)
	}
	return id, nil
}

// Get returns the compiled schema and its source document.
func (r *Registry) Get(id ksuid.KSUID) (*schema.Schema, []byte, error) {
	data, closer, err := r.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil, fmt.Errorf("schema %s: %w", id, ErrSchemaNotFound)
		}
		return nil, nil, fmt.Errorf("failed to load schema %s: %w", id, err)
	}
	doc := make([]byte, len(data))
	copy(doc, data)
	if err := closer.Close(); err != nil {
		return nil, nil, err
	}

	s, err := schema.Parse(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("stored schema %s no longer compiles: %w", id, err)
	}
	return s, doc, nil
}

// Update replaces the document stored under id. The document must compile
// and the id must already exist.
func (r *Registry) Update(id ksuid.KSUID, doc []byte) error {
	if _, err := schema.Parse(doc); err != nil {
		return err
	}
	if _, _, err := r.Get(id); err != nil {
		return err
	}
	if err := r.db.Set(id.Bytes(), doc, pebble.Sync); err != nil {
		return fmt.Errorf("failed to update schema %s: %w", id, err)
	}
	return nil
}

// Delete removes the document stored under id. Deleting an unknown id is
// not an error.
func (r *Registry) Delete(id ksuid.KSUID) error {
	if err := r.db.Delete(id.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete schema %s: %w", id, err)
	}
	return nil
}

// List returns the IDs of every stored schema in creation order.
func (r *Registry) List() ([]ksuid.KSUID, error) {
	iter, err := r.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate registry: %w", err)
	}

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			continue // not a schema key
		}
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}
