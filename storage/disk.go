//go:generate go run go.uber.org/mock/mockgen -source=disk.go -destination=../mocks/mock_file_store.go -package=mocks
package storage

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const sniffSize = 512

type IFileStore interface {
	Store(originalName string, content io.Reader) (domain.Attachment, error)
	Exists(storedName string) (bool, error)
	Retrieve(storedName string) (domain.Attachment, io.ReadSeekCloser, error)
}

// DiskStore keeps attachments as flat files inside a single directory.
type DiskStore struct {
	dir     string
	maxSize int64
	log     *slog.Logger
	now     func() time.Time
}

func NewDiskStore(dir string, maxSize int64, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: creating content dir %s: %v", errors.ErrPersistence, dir, err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize, log: log, now: time.Now}, nil
}

// Store writes content under a generated name "{unix_millis}-{short_uuid}{ext}".
// The payload goes to a temporary file first and is renamed once complete,
// so readers never observe a partial attachment.
func (d *DiskStore) Store(originalName string, content io.Reader) (domain.Attachment, error) {
	originalName = filepath.Base(originalName)
	storedName := fmt.Sprintf("%d-%s%s",
		d.now().UnixMilli(),
		strings.SplitN(uuid.NewString(), "-", 2)[0],
		strings.ToLower(filepath.Ext(originalName)))

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return domain.Attachment{}, fmt.Errorf("%w: reading upload: %v", errors.ErrPersistence, err)
	}
	head = head[:n]

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	reader := io.MultiReader(bytes.NewReader(head), content)
	if d.maxSize > 0 {
		reader = io.LimitReader(reader, d.maxSize+1)
	}
	written, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		return domain.Attachment{}, fmt.Errorf("%w: writing %s: %v", errors.ErrPersistence, storedName, errors.Join(err, closeErr))
	}
	if d.maxSize > 0 && written > d.maxSize {
		return domain.Attachment{}, fmt.Errorf("%w: limit is %d bytes", errors.ErrFileTooLarge, d.maxSize)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(d.dir, storedName)); err != nil {
		return domain.Attachment{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	attachment := domain.Attachment{
		StoredName:   storedName,
		OriginalName: originalName,
		MimeType:     mimetype.Detect(head).String(),
		Size:         written,
	}
	d.log.Debug("Attachment stored", "stored_name", storedName, "mime_type", attachment.MimeType, "size", written)
	return attachment, nil
}

func (d *DiskStore) Exists(storedName string) (bool, error) {
	path, ok := d.path(storedName)
	if !ok {
		return false, nil
	}
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
}

// Retrieve opens a stored attachment. The caller closes the returned reader.
func (d *DiskStore) Retrieve(storedName string) (domain.Attachment, io.ReadSeekCloser, error) {
	path, ok := d.path(storedName)
	if !ok {
		return domain.Attachment{}, nil, errors.ErrFileNotFound
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Attachment{}, nil, errors.ErrFileNotFound
	}
	if err != nil {
		return domain.Attachment{}, nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = file.Close()
		return domain.Attachment{}, nil, errors.ErrFileNotFound
	}

	head := make([]byte, sniffSize)
	n, _ := io.ReadFull(file, head)
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return domain.Attachment{}, nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	return domain.Attachment{
		StoredName: info.Name(),
		MimeType:   mimetype.Detect(head[:n]).String(),
		Size:       info.Size(),
	}, file, nil
}

// path resolves storedName inside the content dir. Only the base name is
// kept, so "../" sequences cannot escape the directory.
func (d *DiskStore) path(storedName string) (string, bool) {
	name := filepath.Base(filepath.Clean("/" + storedName))
	if name == "/" || name == "." || name == ".." || strings.HasPrefix(name, ".upload-") {
		return "", false
	}
	return filepath.Join(d.dir, name), true
}
