package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"cmsapi/internal/access"
	"cmsapi/internal/ids"
	"cmsapi/internal/logging"
	"cmsapi/internal/model"
	"cmsapi/internal/storage"
)

// DocumentInput holds the fields of a new document.
type DocumentInput struct {
	Title      string    `json:"title"`
	Owner      string    `json:"owner"`
	DocType    string    `json:"doc_type"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// DocumentPatch changes the non-nil fields of a document. Editing the expiry
// date keeps the reminders already sent.
type DocumentPatch struct {
	Title      *string    `json:"title,omitempty"`
	Owner      *string    `json:"owner,omitempty"`
	DocType    *string    `json:"doc_type,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	Create(ctx context.Context, s access.Session, in DocumentInput) (*model.Document, error)
	Update(ctx context.Context, s access.Session, id string, patch DocumentPatch) (*model.Document, error)

	// Attach uploads the content to object storage and links it to the document.
	// The object is removed again if the document cannot be saved.
	Attach(ctx context.Context, s access.Session, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error)

	// DownloadURL returns a time-limited URL for the document's attachment.
	DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Download streams the attachment through the service for clients that
	// cannot reach the object store. The caller closes the reader.
	Download(ctx context.Context, id string) (io.ReadCloser, *model.Attachment, error)

	List(ctx context.Context, limit, offset int) (*Page[model.Document], error)
	Get(ctx context.Context, id string) (*model.Document, error)
}

type documentService struct {
	d Deps
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d Deps) DocumentService {
	return &documentService{d: d}
}

func (s *documentService) Create(ctx context.Context, sess access.Session, in DocumentInput) (*model.Document, error) {
	if err := gate(s.d, sess, access.CreateDocument); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, invalid("title is required")
	}
	if in.ExpiryDate.IsZero() {
		return nil, invalid("expiry_date is required")
	}
	now := s.d.Clock.Now()
	doc := &model.Document{
		ID:            ids.NewAt(now),
		Title:         in.Title,
		Owner:         in.Owner,
		DocType:       in.DocType,
		ExpiryDate:    in.ExpiryDate.UTC(),
		RemindersSent: []int{},
		UploadedBy:    sess.UserID,
		CreatedAt:     now,
	}
	put, err := s.d.Store.Documents.Stage(doc)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, "Created document: "+doc.Title, put); err != nil {
		return nil, err
	}
	committed(doc)
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, sess access.Session, id string, patch DocumentPatch) (*model.Document, error) {
	if err := gate(s.d, sess, access.UpdateDocument); err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalid("title must not be empty")
		}
		doc.Title = title
	}
	if patch.Owner != nil {
		doc.Owner = *patch.Owner
	}
	if patch.DocType != nil {
		doc.DocType = *patch.DocType
	}
	if patch.ExpiryDate != nil {
		if patch.ExpiryDate.IsZero() {
			return nil, invalid("expiry_date must not be empty")
		}
		doc.ExpiryDate = patch.ExpiryDate.UTC()
	}
	put, err := s.d.Store.Documents.Stage(doc)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, s.d, sess, fmt.Sprintf("Updated document %s", doc.ID), put); err != nil {
		return nil, err
	}
	committed(doc)
	return doc, nil
}

func (s *documentService) Attach(ctx context.Context, sess access.Session, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error) {
	if err := gate(s.d, sess, access.UpdateDocument); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	if s.d.Storage == nil {
		return nil, ErrStorageUnavailable
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	key := storage.AttachmentKey(doc.ID, uuid.New().String(), originalFilename)

	objInfo, err := s.d.Storage.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
			"document-id":       doc.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	previous := doc.Attachment
	doc.Attachment = &model.Attachment{
		Name:        originalFilename,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
	}
	put, err := s.d.Store.Documents.Stage(doc)
	if err == nil {
		err = commit(ctx, s.d, sess, fmt.Sprintf("Attached %s to document %s", originalFilename, doc.ID), put)
	}
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.d.Storage.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	committed(doc)

	if previous != nil {
		if err := s.d.Storage.Delete(ctx, previous.StoragePath); err != nil {
			logging.Warn("document", "stale_attachment_not_deleted", map[string]any{
				"document_id":   doc.ID,
				"storage_path":  previous.StoragePath,
				"error_message": err.Error(),
			})
		}
	}
	return doc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	att, err := s.attachment(ctx, id)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	url, err := s.d.Storage.PresignGet(ctx, att.StoragePath, att.Name, expiry)
	if err != nil {
		return "", fmt.Errorf("presign attachment: %w", err)
	}
	return url, nil
}

func (s *documentService) Download(ctx context.Context, id string) (io.ReadCloser, *model.Attachment, error) {
	att, err := s.attachment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, info, err := s.d.Storage.Open(ctx, att.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	// The stored object is authoritative for length and type.
	out := *att
	if info.Size > 0 {
		out.Size = info.Size
	}
	if info.ContentType != "" {
		out.ContentType = info.ContentType
	}
	return rc, &out, nil
}

func (s *documentService) attachment(ctx context.Context, id string) (*model.Attachment, error) {
	if s.d.Storage == nil {
		return nil, ErrStorageUnavailable
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Attachment == nil {
		return nil, fmt.Errorf("%w: document %s has no attachment", ErrNotFound, id)
	}
	return doc.Attachment, nil
}

// List returns paginated documents, newest first.
func (s *documentService) List(ctx context.Context, limit, offset int) (*Page[model.Document], error) {
	docs, err := s.d.Store.Documents.List(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(newestFirst(docs), limit, offset), nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.load(ctx, id)
}

func (s *documentService) load(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.d.Store.Documents.Get(ctx, id)
	if err != nil {
		return nil, notFound("document", id, err)
	}
	return doc, nil
}
