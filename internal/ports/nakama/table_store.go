package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"landlord/internal/domain"
	"landlord/internal/ports"
	"landlord/internal/ports/record"
)

// StorageModule is the subset of runtime.NakamaModule the table store needs.
type StorageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// storedRecord wraps an encoded record so it is a JSON object, as Nakama storage requires.
type storedRecord struct {
	Record []byte `json:"record"`
}

// TableStore keeps records in Nakama storage. Writes are conditional on the
// version that was read; a rejected write re-reads and re-runs the closure.
type TableStore struct {
	nk         StorageModule
	maxRetries int
}

var _ ports.TableStore = (*TableStore)(nil)

// NewTableStore returns a store retrying contended commits up to maxRetries times.
func NewTableStore(nk StorageModule, maxRetries int) *TableStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TableStore{nk: nk, maxRetries: maxRetries}
}

func (s *TableStore) InitGameState(ctx context.Context, gs *domain.GameState) error {
	w, err := storageWrite(stateCollection, stateKey, record.EncodeGameState(gs), "*")
	if err != nil {
		return err
	}
	if _, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{w}); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return domain.ErrAlreadyInitialized
		}
		return fmt.Errorf("write game state: %w", err)
	}
	return nil
}

func (s *TableStore) GameState(ctx context.Context) (*domain.GameState, error) {
	b, _, err := s.read(ctx, stateCollection, stateKey)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotInitialized
	}
	return record.DecodeGameState(b)
}

func (s *TableStore) CreateTable(ctx context.Context, create func(gs *domain.GameState) (*domain.Table, error)) (*domain.Table, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		b, version, err := s.read(ctx, stateCollection, stateKey)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, domain.ErrNotInitialized
		}
		gs, err := record.DecodeGameState(b)
		if err != nil {
			return nil, err
		}
		t, err := create(gs)
		if err != nil {
			return nil, err
		}

		rec := record.Encode(t)
		stateWrite, err := storageWrite(stateCollection, stateKey, record.EncodeGameState(gs), version)
		if err != nil {
			return nil, err
		}
		tableWrite, err := storageWrite(tableCollection, tableKey(t.ID), rec, "*")
		if err != nil {
			return nil, err
		}
		_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{stateWrite, tableWrite})
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("write table %d: %w", t.ID, err)
		}
		return record.Decode(rec)
	}
	return nil, fmt.Errorf("%w: create table", ports.ErrConflict)
}

func (s *TableStore) UpdateTable(ctx context.Context, id uint64, mutate func(t *domain.Table) error) (*domain.Table, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		b, version, err := s.read(ctx, tableCollection, tableKey(id))
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("%w: %d", domain.ErrTableNotFound, id)
		}
		t, err := record.Decode(b)
		if err != nil {
			return nil, err
		}
		if err := mutate(t); err != nil {
			return nil, err
		}

		w, err := storageWrite(tableCollection, tableKey(id), record.Encode(t), version)
		if err != nil {
			return nil, err
		}
		_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{w})
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("write table %d: %w", id, err)
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: table %d", ports.ErrConflict, id)
}

func (s *TableStore) Table(ctx context.Context, id uint64) (*domain.Table, error) {
	b, _, err := s.read(ctx, tableCollection, tableKey(id))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrTableNotFound, id)
	}
	return record.Decode(b)
}

// read returns the record bytes and storage version, or nil bytes when absent.
func (s *TableStore) read(ctx context.Context, collection, key string) ([]byte, string, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: collection,
		Key:        key,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("read %s/%s: %w", collection, key, err)
	}
	if len(objects) == 0 {
		return nil, "", nil
	}
	var stored storedRecord
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &stored); err != nil {
		return nil, "", fmt.Errorf("%w: %s/%s: %v", record.ErrMalformed, collection, key, err)
	}
	return stored.Record, objects[0].GetVersion(), nil
}

func storageWrite(collection, key string, rec []byte, version string) (*runtime.StorageWrite, error) {
	value, err := json.Marshal(storedRecord{Record: rec})
	if err != nil {
		return nil, fmt.Errorf("marshal %s/%s: %w", collection, key, err)
	}
	return &runtime.StorageWrite{
		Collection:      collection,
		Key:             key,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}, nil
}

func tableKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}
