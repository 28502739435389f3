package credstore

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var _ Store = (*Routing)(nil)

// Routing sends sensitive keys to a secure backend and everything else to a
// general backend. Backend faults on reads are logged and converted to a
// null result; the cache is never allowed to take the client down.
type Routing struct {
	secure  Store
	general Store
}

func NewRouting(secure, general Store) (*Routing, error) {
	if secure == nil {
		return nil, errors.New("[NewRouting] secure store is required")
	}
	if general == nil {
		return nil, errors.New("[NewRouting] general store is required")
	}
	return &Routing{secure: secure, general: general}, nil
}

func (r *Routing) route(key string) Store {
	if IsSensitiveKey(key) {
		return r.secure
	}
	return r.general
}

func (r *Routing) Get(key string) (string, error) {
	value, err := r.route(key).Get(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("credential store read failed")
		return "", nil
	}
	return value, nil
}

func (r *Routing) Set(key, value string) error {
	if err := r.route(key).Set(key, value); err != nil {
		return errors.Wrap(err, "[Routing.Set]")
	}
	return nil
}

func (r *Routing) Remove(key string) error {
	if err := r.route(key).Remove(key); err != nil {
		return errors.Wrap(err, "[Routing.Remove]")
	}
	return nil
}

func (r *Routing) RemoveMany(keys []string) error {
	var secureKeys, generalKeys []string
	for _, key := range keys {
		if IsSensitiveKey(key) {
			secureKeys = append(secureKeys, key)
		} else {
			generalKeys = append(generalKeys, key)
		}
	}
	if len(secureKeys) > 0 {
		if err := r.secure.RemoveMany(secureKeys); err != nil {
			return errors.Wrap(err, "[Routing.RemoveMany] secure")
		}
	}
	if len(generalKeys) > 0 {
		if err := r.general.RemoveMany(generalKeys); err != nil {
			return errors.Wrap(err, "[Routing.RemoveMany] general")
		}
	}
	return nil
}
