// Package store is the string key-value boundary that presets and
// conversations are persisted through.
package store

import "errors"

// Store is a synchronous string-keyed get/set store with no transactions.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

var ErrClosed = errors.New("store closed")
