package credstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

var _ Store = (*Secure)(nil)

// Secure is an encrypted-at-rest file store for sensitive keys. It stands in
// for the OS keychain on platforms that have no enclave binding for Go; the
// 32-byte key is supplied by the caller (typically derived by the platform
// adapter from machine-local material).
type Secure struct {
	path string
	aead cipher.AEAD
	lock sync.Mutex
}

func NewSecure(path string, key []byte) (*Secure, error) {
	if path == "" {
		return nil, errors.New("[NewSecure] path is required")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSecure] chacha20poly1305.NewX")
	}
	return &Secure{path: path, aead: aead}, nil
}

func (s *Secure) Get(key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return "", errors.Wrap(err, "[Secure.Get] load")
	}
	return values[key], nil
}

func (s *Secure) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return errors.Wrap(err, "[Secure.Set] load")
	}
	values[key] = value
	return errors.Wrap(s.save(values), "[Secure.Set] save")
}

func (s *Secure) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return errors.Wrap(err, "[Secure.Remove] load")
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return errors.Wrap(s.save(values), "[Secure.Remove] save")
}

func (s *Secure) RemoveMany(keys []string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return errors.Wrap(err, "[Secure.RemoveMany] load")
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
	return errors.Wrap(s.save(values), "[Secure.RemoveMany] save")
}

func (s *Secure) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("ciphertext shorter than nonce")
	}
	nonce, ciphertext := data[:chacha20poly1305.NonceSizeX], data[chacha20poly1305.NonceSizeX:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt")
	}
	values := make(map[string]string)
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Secure) save(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "nonce")
	}
	ciphertext := s.aead.Seal(nonce, nonce, plaintext, nil)
	return os.WriteFile(s.path, ciphertext, 0o600)
}
