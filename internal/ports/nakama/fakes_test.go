package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// fakeNakama keeps storage objects, wallets and sent notifications in memory and
// enforces storage versions the way Nakama does.
type fakeNakama struct {
	mu            sync.Mutex
	objects       map[string]*api.StorageObject
	version       int
	rejectWrites  int // forced version rejections still to hand out
	writes        int
	wallets       map[string]map[string]int64
	notifications []*runtime.NotificationSend
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{
		objects: make(map[string]*api.StorageObject),
		wallets: make(map[string]map[string]int64),
	}
}

func objectKey(collection, key string) string {
	return collection + "/" + key
}

func (f *fakeNakama) StorageRead(_ context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		if o, ok := f.objects[objectKey(r.Collection, r.Key)]; ok {
			out = append(out, &api.StorageObject{
				Collection: o.Collection,
				Key:        o.Key,
				Value:      o.Value,
				Version:    o.Version,
			})
		}
	}
	return out, nil
}

func (f *fakeNakama) StorageWrite(_ context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(writes)
}

func (f *fakeNakama) writeLocked(writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if f.rejectWrites > 0 {
		f.rejectWrites--
		return nil, runtime.ErrStorageRejectedVersion
	}
	for _, w := range writes {
		existing, ok := f.objects[objectKey(w.Collection, w.Key)]
		switch {
		case w.Version == "*" && ok:
			return nil, runtime.ErrStorageRejectedVersion
		case w.Version != "" && w.Version != "*" && (!ok || existing.Version != w.Version):
			return nil, runtime.ErrStorageRejectedVersion
		}
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		f.version++
		version := strconv.Itoa(f.version)
		f.objects[objectKey(w.Collection, w.Key)] = &api.StorageObject{
			Collection: w.Collection,
			Key:        w.Key,
			Value:      w.Value,
			Version:    version,
		}
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, Version: version})
	}
	f.writes++
	return acks, nil
}

func (f *fakeNakama) AccountGetId(_ context.Context, userID string) (*api.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wallets[userID] == nil {
		return nil, errors.New("account not found")
	}
	wallet, err := json.Marshal(f.wallets[userID])
	if err != nil {
		return nil, err
	}
	return &api.Account{User: &api.User{Id: userID}, Wallet: string(wallet)}, nil
}

func (f *fakeNakama) MultiUpdate(_ context.Context, _ []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, _ []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, _ bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acks, err := f.writeLocked(storageWrites)
	if err != nil {
		return nil, nil, err
	}
	results := make([]*runtime.WalletUpdateResult, 0, len(walletUpdates))
	for _, u := range walletUpdates {
		if f.wallets[u.UserID] == nil {
			f.wallets[u.UserID] = make(map[string]int64)
		}
		for currency, delta := range u.Changeset {
			f.wallets[u.UserID][currency] += delta
		}
		results = append(results, &runtime.WalletUpdateResult{UserID: u.UserID})
	}
	return acks, results, nil
}

func (f *fakeNakama) NotificationsSend(_ context.Context, notifications []*runtime.NotificationSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, notifications...)
	return nil
}

func (f *fakeNakama) balance(userID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallets[userID][walletCurrency]
}

func (f *fakeNakama) sent() []*runtime.NotificationSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*runtime.NotificationSend(nil), f.notifications...)
}
