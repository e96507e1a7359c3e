package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead_capture_backend/internal/adapters/storage"
	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/platform/apperr"
)

// LeadAttachmentStorage stores conversation audio and card images in object
// storage. References have the form "<bucket>/<key>".
type LeadAttachmentStorage struct {
	svc         storage.StorageService
	audioBucket string
	imageBucket string
}

// NewLeadAttachmentStorage returns nil when svc is nil so callers can leave
// uploads disabled.
func NewLeadAttachmentStorage(svc storage.StorageService, audioBucket, imageBucket string) *LeadAttachmentStorage {
	if svc == nil {
		return nil
	}
	return &LeadAttachmentStorage{svc: svc, audioBucket: audioBucket, imageBucket: imageBucket}
}

// EnsureBuckets creates the attachment buckets when missing.
func (a *LeadAttachmentStorage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{a.audioBucket, a.imageBucket} {
		if err := a.svc.EnsureBucketExists(ctx, bucket); err != nil {
			return err
		}
	}
	return nil
}

func (a *LeadAttachmentStorage) Store(ctx context.Context, kind string, leadID uuid.UUID, upload ports.Upload) (string, error) {
	if a == nil || a.svc == nil {
		return "", ports.ErrStorageDisabled
	}

	var bucket string
	switch kind {
	case ports.UploadConversationAudio:
		bucket = a.audioBucket
		if !storage.IsAudioContentType(upload.ContentType) {
			return "", apperr.Validation("audio file must be an audio recording")
		}
	case ports.UploadScanImage:
		bucket = a.imageBucket
		if !storage.IsImageContentType(upload.ContentType) {
			return "", apperr.Validation("scan image must be an image")
		}
	default:
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}

	if err := a.svc.ValidateContentType(upload.ContentType); err != nil {
		return "", apperr.Validation(err.Error())
	}
	if err := a.svc.ValidateFileSize(upload.Size); err != nil {
		return "", apperr.Validation(err.Error())
	}

	contentType := storage.NormalizeContentType(upload.ContentType)
	key, err := a.svc.UploadFile(ctx, bucket, leadID.String(), upload.FileName, contentType, upload.Reader, upload.Size)
	if err != nil {
		return "", err
	}
	return bucket + "/" + key, nil
}

func (a *LeadAttachmentStorage) DownloadURL(ctx context.Context, ref string) (string, time.Time, error) {
	if a == nil || a.svc == nil {
		return "", time.Time{}, ports.ErrStorageDisabled
	}
	bucket, key, ok := strings.Cut(ref, "/")
	if !ok || bucket == "" || key == "" {
		return "", time.Time{}, fmt.Errorf("invalid object reference %q", ref)
	}
	presigned, err := a.svc.GenerateDownloadURL(ctx, bucket, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return presigned.URL, presigned.ExpiresAt, nil
}

// Compile-time check.
var _ ports.ObjectStorage = (*LeadAttachmentStorage)(nil)
