package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		PasswordHash: "$argon2id$digest",
		CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	req.NoError(repository.CreateUser(user))

	fetched, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(user, fetched)

	exists, err := repository.Exists("alice")
	req.NoError(err)
	req.True(exists)
}

func TestUserRepository_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	req.NoError(repository.CreateUser(domain.User{ID: "1", Username: "alice"}))
	err := repository.CreateUser(domain.User{ID: "2", Username: "alice"})

	req.ErrorIs(err, errors.ErrUserAlreadyExists)
	fetched, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal("1", fetched.ID)
}

func TestUserRepository_Concurrent_Registration_Only_One_Wins(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repository.CreateUser(domain.User{ID: uuid.NewString(), Username: "alice"})
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	}
	req.Equal(1, succeeded)
}

func TestUserRepository_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetUserByUsername("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)

	exists, err := repository.Exists("ghost")
	req.NoError(err)
	req.False(exists)
}
