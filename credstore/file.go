package credstore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

var _ Store = (*File)(nil)

// File is the general unencrypted persistent store: a JSON document on disk,
// rewritten on every mutation. Suitable for non-sensitive metadata only.
type File struct {
	path string
	lock sync.Mutex
}

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("[NewFile] path is required")
	}
	return &File{path: path}, nil
}

func (f *File) Get(key string) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.load()
	if err != nil {
		return "", errors.Wrap(err, "[File.Get] load")
	}
	return values[key], nil
}

func (f *File) Set(key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.load()
	if err != nil {
		return errors.Wrap(err, "[File.Set] load")
	}
	values[key] = value
	return errors.Wrap(f.save(values), "[File.Set] save")
}

func (f *File) Remove(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.load()
	if err != nil {
		return errors.Wrap(err, "[File.Remove] load")
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return errors.Wrap(f.save(values), "[File.Remove] save")
}

func (f *File) RemoveMany(keys []string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	values, err := f.load()
	if err != nil {
		return errors.Wrap(err, "[File.RemoveMany] load")
	}
	removed := false
	for _, key := range keys {
		if _, ok := values[key]; ok {
			delete(values, key)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return errors.Wrap(f.save(values), "[File.RemoveMany] save")
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}
	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}
