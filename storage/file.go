package storage

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileKV is a KV backed by a single JSON file. Writes go through a temp file
// and an atomic rename so a crash mid-write never corrupts the store.
type FileKV struct {
	mu   sync.Mutex
	path string
	data map[string]string // key -> base64(value)
}

// NewFileKV opens (or creates) the store at path.
func NewFileKV(path string) (*FileKV, error) {
	kv := &FileKV{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[NewFileKV] read")
	}
	if len(raw) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(raw, &kv.data); err != nil {
		return nil, errors.Wrap(err, "[NewFileKV] unmarshal")
	}
	return kv, nil
}

func (kv *FileKV) Get(key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	encoded, ok := kv.data[key]
	if !ok {
		return nil, false, nil
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, errors.Wrap(err, "[FileKV.Get] decode")
	}
	return value, true, nil
}

func (kv *FileKV) Set(key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.data[key] = base64.StdEncoding.EncodeToString(value)
	return kv.flushLocked()
}

func (kv *FileKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if _, ok := kv.data[key]; !ok {
		return nil
	}
	delete(kv.data, key)
	return kv.flushLocked()
}

func (kv *FileKV) flushLocked() error {
	raw, err := json.MarshalIndent(kv.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileKV] marshal")
	}

	dir := filepath.Dir(kv.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[FileKV] mkdir")
	}

	tmp, err := os.CreateTemp(dir, ".kv-*")
	if err != nil {
		return errors.Wrap(err, "[FileKV] temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileKV] write")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileKV] close")
	}
	if err := os.Rename(tmpName, kv.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[FileKV] rename")
	}
	return nil
}

var _ KV = (*FileKV)(nil)
