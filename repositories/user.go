//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUserByUsername(username domain.Identity) (domain.User, error)
	Exists(username domain.Identity) (bool, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

type diskUser struct {
	ID           string    `msgpack:"id"`
	Username     string    `msgpack:"username"`
	PasswordHash string    `msgpack:"password_hash"`
	CreatedAt    time.Time `msgpack:"created_at"`
}

func userKey(username domain.Identity) []byte {
	return []byte("user:" + username.String())
}

// CreateUser persists user keyed by its username.
// The check and the write share one transaction, so two concurrent
// registrations of the same name cannot both succeed.
func (u UserRepository) CreateUser(user domain.User) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		key := userKey(user.Username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setValue(txn, key, diskUser{
			ID:           user.ID,
			Username:     user.Username.String(),
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
		})
	})
	if errors.Is(err, badger.ErrConflict) {
		return errors.ErrUserAlreadyExists
	}
	return persistence(err)
}

func (u UserRepository) GetUserByUsername(username domain.Identity) (domain.User, error) {
	var du diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		return getValue(txn, userKey(username), &du, errors.ErrUserNotFound)
	})
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           du.ID,
		Username:     domain.Identity(du.Username),
		PasswordHash: du.PasswordHash,
		CreatedAt:    du.CreatedAt.UTC(),
	}, nil
}

func (u UserRepository) Exists(username domain.Identity) (bool, error) {
	err := u.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(username))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, persistence(err)
	}
}
