package repositories

import (
	"chat-relay/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// OpenBadger opens (or creates) the database stored under path.
func OpenBadger(path string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.ERROR).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger at %s: %v", errors.ErrPersistence, path, err)
	}
	log.Info("Badger opened", "path", path)
	return db, nil
}

// getValue decodes the msgpack value stored under key into out.
// Missing keys are reported as notFound.
func getValue(txn *badger.Txn, key []byte, out any, notFound error) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return persistence(err)
	}
	return item.Value(func(val []byte) error {
		if err := msgpack.Unmarshal(val, out); err != nil {
			return persistence(err)
		}
		return nil
	})
}

func setValue(txn *badger.Txn, key []byte, in any) error {
	data, err := msgpack.Marshal(in)
	if err != nil {
		return persistence(err)
	}
	return txn.Set(key, data)
}

// persistence wraps storage failures so they map to a single taxonomy.
// Errors already carrying a domain sentinel are kept as they are.
func persistence(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
}

func isDomainError(err error) bool {
	for _, sentinel := range []error{
		errors.ErrPersistence, errors.ErrUserAlreadyExists, errors.ErrUserNotFound,
		errors.ErrGroupNotFound, errors.ErrTargetNotFound, errors.ErrUnsupportedMessage,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
