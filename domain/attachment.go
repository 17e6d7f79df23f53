package domain

// Attachment describes a file kept by the file storage collaborator.
type Attachment struct {
	StoredName   string
	OriginalName string
	MimeType     string
	Size         int64
}
