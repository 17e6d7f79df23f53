package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/storage"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type IFileService interface {
	Upload(uploader domain.Identity, originalName string, content io.Reader) (domain.Attachment, error)
	Download(storedName string) (domain.Attachment, io.ReadSeekCloser, error)
}

type FileService struct {
	log   *slog.Logger
	store storage.IFileStore
}

func NewFileService(log *slog.Logger, store storage.IFileStore) *FileService {
	return &FileService{log: log, store: store}
}

func (s *FileService) Upload(uploader domain.Identity, originalName string, content io.Reader) (domain.Attachment, error) {
	if strings.TrimSpace(originalName) == "" || content == nil {
		return domain.Attachment{}, fmt.Errorf("%w: missing file", errors.ErrInvalidRequest)
	}
	attachment, err := s.store.Store(originalName, content)
	if err != nil {
		return domain.Attachment{}, err
	}
	s.log.Info("Attachment uploaded",
		"identity", uploader,
		"stored_name", attachment.StoredName,
		"mime_type", attachment.MimeType,
		"size", attachment.Size)
	return attachment, nil
}

// Download opens a stored attachment. The caller closes the returned reader.
func (s *FileService) Download(storedName string) (domain.Attachment, io.ReadSeekCloser, error) {
	if strings.TrimSpace(storedName) == "" {
		return domain.Attachment{}, nil, errors.ErrFileNotFound
	}
	return s.store.Retrieve(storedName)
}
