// Package storage keeps attachment payloads on local disk. Messages only
// carry public ids and URLs; the bytes themselves live here.
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"chat-hub/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffSize is how many leading bytes the MIME detector needs.
const sniffSize = 3072

type BlobStore struct {
	root      string
	publicURL string
	log       *slog.Logger
}

// NewBlobStore ensures the root directory exists. publicURL is the prefix
// clients use to fetch a stored blob, e.g. "/files".
func NewBlobStore(root, publicURL string, log *slog.Logger) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &BlobStore{root: root, publicURL: publicURL, log: log}, nil
}

// Save sniffs the content type from the payload's leading bytes, writes
// the blob under a fresh public id and returns the attachment reference.
func (b *BlobStore) Save(r io.Reader) (domain.Attachment, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("reading upload: %w", err)
	}

	sniff := payload
	if len(sniff) > sniffSize {
		sniff = sniff[:sniffSize]
	}
	detected := mimetype.Detect(sniff)

	publicID := uuid.NewString() + detected.Extension()
	if err := os.WriteFile(filepath.Join(b.root, publicID), payload, 0644); err != nil {
		return domain.Attachment{}, fmt.Errorf("writing blob: %w", err)
	}

	b.log.Debug("Stored attachment", "public_id", publicID, "mime", detected.String(), "size", len(payload))
	return domain.Attachment{
		PublicID: publicID,
		URL:      b.publicURL + "/" + publicID,
	}, nil
}

// Open returns the blob's content and detected MIME type.
func (b *BlobStore) Open(publicID string) (io.ReadCloser, string, error) {
	path, err := b.resolve(publicID)
	if err != nil {
		return nil, "", err
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, detected.String(), nil
}

// Delete removes a stored blob. Missing blobs are not an error so cascade
// deletes stay idempotent.
func (b *BlobStore) Delete(publicID string) error {
	path, err := b.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DeleteAll reclaims every attachment of a deleted conversation. Failures
// are logged and skipped, a leaked blob never blocks the cascade.
func (b *BlobStore) DeleteAll(attachments []domain.Attachment) {
	for _, attachment := range attachments {
		if err := b.Delete(attachment.PublicID); err != nil {
			b.log.Error("Blob reclaim failed", "public_id", attachment.PublicID, "err", err)
		}
	}
}

// resolve rejects ids escaping the blob root.
func (b *BlobStore) resolve(publicID string) (string, error) {
	cleaned := filepath.Base(filepath.Clean(publicID))
	if cleaned != publicID || cleaned == "." || cleaned == ".." {
		return "", fmt.Errorf("invalid blob id %q", publicID)
	}
	return filepath.Join(b.root, cleaned), nil
}
