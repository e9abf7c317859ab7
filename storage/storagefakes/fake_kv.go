// Package storagefakes provides in-memory test doubles for the storage
// contracts.
package storagefakes

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vmedis/go-mobile-shell/storage"
)

// FakeKV is an in-memory storage.KV. FailWrites makes every Set/Delete fail,
// for exercising the persistence-failure-is-not-fatal policy.
type FakeKV struct {
	mu         sync.Mutex
	data       map[string][]byte
	FailWrites bool
	SetCalls   int
}

func NewFakeKV() *FakeKV {
	return &FakeKV{data: make(map[string][]byte)}
}

func (kv *FakeKV) Get(key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	value, ok := kv.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (kv *FakeKV) Set(key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.SetCalls++
	if kv.FailWrites {
		return errors.New("write failed")
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	kv.data[key] = cp
	return nil
}

func (kv *FakeKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.FailWrites {
		return errors.New("delete failed")
	}
	delete(kv.data, key)
	return nil
}

// Has reports whether the key currently exists.
func (kv *FakeKV) Has(key string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	_, ok := kv.data[key]
	return ok
}

var _ storage.KV = (*FakeKV)(nil)
