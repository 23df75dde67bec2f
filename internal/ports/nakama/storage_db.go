package nakama

import (
	"context"
	"errors"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// systemUserID owns storage objects written without a user, as the module's are.
const systemUserID = "00000000-0000-0000-0000-000000000000"

var errReadOnly = errors.New("nakama storage database is opened read-only")

type rowQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StorageDB reads the module's storage objects straight from Nakama's database.
// It serves offline tools; wrap it in a TableStore to decode records.
type StorageDB struct {
	q     rowQueryer
	close func()
}

var _ StorageModule = (*StorageDB)(nil)

// OpenStorageDB connects to the Nakama database at dsn.
func OpenStorageDB(ctx context.Context, dsn string) (*StorageDB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping nakama database: %w", err)
	}
	return &StorageDB{q: p, close: p.Close}, nil
}

// Close releases the connection pool.
func (d *StorageDB) Close() {
	if d.close != nil {
		d.close()
	}
}

func (d *StorageDB) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	var out []*api.StorageObject
	for _, r := range reads {
		userID := r.UserID
		if userID == "" {
			userID = systemUserID
		}
		var value, version string
		err := d.q.QueryRow(ctx,
			`SELECT value::text, version FROM storage WHERE collection = $1 AND key = $2 AND user_id = $3`,
			r.Collection, r.Key, userID).Scan(&value, &version)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query %s/%s: %w", r.Collection, r.Key, err)
		}
		out = append(out, &api.StorageObject{
			Collection: r.Collection,
			Key:        r.Key,
			UserId:     userID,
			Value:      value,
			Version:    version,
		})
	}
	return out, nil
}

func (d *StorageDB) StorageWrite(context.Context, []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	return nil, errReadOnly
}
