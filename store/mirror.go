package store

import (
	"errors"
	"fmt"
)

// Mirror writes through to a local store and a remote one. Reads prefer the
// local copy and fall back to the remote when the key is missing locally.
// There is no merge: the last writer wins on both sides.
type Mirror struct {
	Local  Store
	Remote Store
}

func NewMirror(local, remote Store) *Mirror {
	return &Mirror{Local: local, Remote: remote}
}

func (m *Mirror) Get(key string) (string, bool, error) {
	v, ok, err := m.Local.Get(key)
	if err == nil && ok {
		return v, true, nil
	}
	rv, rok, rerr := m.Remote.Get(key)
	if rerr != nil {
		return "", false, errors.Join(err, fmt.Errorf("remote: %w", rerr))
	}
	if !rok {
		return "", false, err
	}
	return rv, true, nil
}

// Set always attempts both writes and reports every failure.
func (m *Mirror) Set(key, value string) error {
	var errs []error
	if err := m.Local.Set(key, value); err != nil {
		errs = append(errs, fmt.Errorf("local: %w", err))
	}
	if err := m.Remote.Set(key, value); err != nil {
		errs = append(errs, fmt.Errorf("remote: %w", err))
	}
	return errors.Join(errs...)
}
