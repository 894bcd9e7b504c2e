// Package record persists catalog records as hashes in the shared store.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/terralab/georag/internal/db"
	"github.com/terralab/georag/internal/domain"
	domrec "github.com/terralab/georag/internal/domain/record"
)

const keyPrefix = domain.KeyPrefix + "rec:"

// store is the consumer interface for record persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo is the record store adapter: a pure key-value contract, no ranking.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put stores a record, replacing any previous version under the same id.
func (r *Repo) Put(ctx context.Context, rec domrec.Record) error {
	if err := r.store.HSet(ctx, key(rec.ID()), toFields(rec)); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ID(), err)
	}
	return nil
}

// Get returns a record by id, or domain.ErrRecordNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domrec.Record, error) {
	fields, err := r.store.HGetAll(ctx, key(id))
	if err != nil {
		return domrec.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domrec.Record{}, fmt.Errorf("record %s: %w", id, domain.ErrRecordNotFound)
	}

	rec, err := fromFields(fields)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

// GetMulti resolves several ids in one round-trip. Missing or undecodable
// ids are returned separately; they are not an error.
func (r *Repo) GetMulti(ctx context.Context, ids []string) (map[string]domrec.Record, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	fieldMaps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("get records: %w", err)
	}

	found := make(map[string]domrec.Record, len(ids))
	var missing []string
	for i, fields := range fieldMaps {
		if len(fields) == 0 {
			missing = append(missing, ids[i])
			continue
		}
		rec, err := fromFields(fields)
		if err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = rec
	}
	return found, missing, nil
}

// Delete removes a record. Deleting an absent id is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a record is stored.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, key(id))
	if err != nil {
		return false, fmt.Errorf("record exists %s: %w", id, err)
	}
	return ok, nil
}

// IDs lists every stored record id. Used by the reconciliation sweep.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix))
	}
	return ids, nil
}

// IsNotFound reports whether err means the record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound) || errors.Is(err, db.ErrKeyNotFound)
}

func key(id string) string { return keyPrefix + id }
