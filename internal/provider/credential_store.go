// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const credentialStoreKey = "provider:credential"

// CredentialStore persists the current credential across restarts.
type CredentialStore interface {
	Load() (Credential, bool, error)
	Save(cred Credential) error
	Delete() error
	Close() error
}

// BadgerCredentialStore keeps the credential in an embedded BadgerDB.
// Entries carry the credential TTL so badger drops them on its own.
type BadgerCredentialStore struct {
	db *badger.DB
}

// OpenBadgerCredentialStore opens (or creates) a store in dir.
func OpenBadgerCredentialStore(dir string) (*BadgerCredentialStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	return &BadgerCredentialStore{db: db}, nil
}

// Load returns the stored credential. ok is false when nothing is stored.
func (s *BadgerCredentialStore) Load() (Credential, bool, error) {
	var cred Credential
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(credentialStoreKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cred)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("load credential: %w", err)
	}
	return cred, true, nil
}

// Save replaces the stored credential.
func (s *BadgerCredentialStore) Save(cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(credentialStoreKey), data)
		if cred.TTL > 0 {
			entry = entry.WithTTL(cred.TTL)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set credential: %w", err)
		}
		return nil
	})
}

// Delete removes the stored credential.
func (s *BadgerCredentialStore) Delete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(credentialStoreKey)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete credential: %w", err)
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BadgerCredentialStore) Close() error {
	return s.db.Close()
}
