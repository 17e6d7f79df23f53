package services

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/storage"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFileService_Upload_Then_Download(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store, err := storage.NewDiskStore(t.TempDir(), 1024, log)
	req.NoError(err)
	service := NewFileService(log, store)

	// Given alice uploads a text file
	attachment, err := service.Upload("alice", "Notes.TXT", strings.NewReader("hello world"))
	req.NoError(err)
	req.Equal("Notes.TXT", attachment.OriginalName)
	req.True(strings.HasSuffix(attachment.StoredName, ".txt"))
	req.EqualValues(11, attachment.Size)

	// When it is downloaded by its stored name
	found, reader, err := service.Download(attachment.StoredName)
	req.NoError(err)
	defer reader.Close()

	// Then the exact bytes come back
	content, err := io.ReadAll(reader)
	req.NoError(err)
	req.Equal("hello world", string(content))
	req.Equal(attachment.StoredName, found.StoredName)
}

func TestFileService_Upload_Too_Large(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store, err := storage.NewDiskStore(t.TempDir(), 4, log)
	req.NoError(err)

	_, err = NewFileService(log, store).Upload("alice", "big.bin", bytes.NewReader([]byte("12345")))

	req.ErrorIs(err, errors.ErrFileTooLarge)
}

func TestFileService_Rejects_Missing_Input(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIFileStore(ctrl)
	store.EXPECT().Store(gomock.Any(), gomock.Any()).Times(0)
	service := NewFileService(logs.GetLoggerFromLevel(slog.LevelDebug), store)

	_, err := service.Upload("alice", " ", strings.NewReader("x"))
	req.ErrorIs(err, errors.ErrInvalidRequest)

	_, _, err = service.Download("")
	req.ErrorIs(err, errors.ErrFileNotFound)
}

func TestFileService_Download_Unknown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIFileStore(ctrl)
	store.EXPECT().Retrieve("missing.txt").Return(domain.Attachment{}, nil, errors.ErrFileNotFound)

	_, _, err := NewFileService(logs.GetLoggerFromLevel(slog.LevelDebug), store).Download("missing.txt")

	req.ErrorIs(err, errors.ErrFileNotFound)
}
