// Package storage holds document attachments in an S3-compatible object store.
// Implementations stream content and never touch local disk.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// PutObjectOptions describe an attachment upload. Size is -1 when the length
// is unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored attachment.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage keeps attachment bodies outside the record store. Documents only
// reference the key returned by AttachmentKey.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Open streams an attachment back. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a credential-free URL valid for expiry. When
	// downloadName is set the response is served as an attachment with that
	// file name.
	PresignGet(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error)
}

// AttachmentKey is the object key of a document attachment: the document id
// as a prefix and a generated name that keeps the original extension.
func AttachmentKey(documentID, generatedName, originalFilename string) string {
	return path.Join("documents", documentID, generatedName+path.Ext(originalFilename))
}

// ContentDisposition builds an attachment header value for name. Quotes and
// control characters are dropped from the plain filename parameter and the
// full name is carried RFC 5987 encoded.
func ContentDisposition(name string) string {
	plain := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' || r == '\\' {
			return -1
		}
		return r
	}, path.Base(name))
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, plain, url.PathEscape(plain))
}
