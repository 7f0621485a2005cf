package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"communityhub/pkg/logger"
)

const publicHost = "https://storage.googleapis.com/"

// Attachment kinds accepted on chat messages.
const (
	KindImage = "image"
	KindVoice = "voice"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/aac":  ".aac",
	"audio/ogg":  ".ogg",
	"audio/webm": ".webm",
	"audio/wav":  ".wav",
}

// ExtensionFor returns the file extension for an allowed content type of kind.
func ExtensionFor(kind, contentType string) (string, bool) {
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return "", false
	}
	switch kind {
	case KindImage:
		return ext, strings.HasPrefix(contentType, "image/")
	case KindVoice:
		return ext, strings.HasPrefix(contentType, "audio/")
	}
	return "", false
}

// ObjectName builds the object path chats/{chatId}/{kind}/{uuid}-{stamp}{ext}.
func ObjectName(chatID, kind, ext string, now time.Time) string {
	name := fmt.Sprintf("%s-%s%s", uuid.New().String(), now.UTC().Format("20060102150405"), ext)
	return path.Join("chats", chatID, kind, name)
}

// PublicURL is the download URL for an object in bucket.
func PublicURL(bucket, object string) string {
	return publicHost + bucket + "/" + object
}

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	c := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := c.setBucketCORS(ctx); err != nil {
		logger.Warn("Failed to set CORS configuration: %v", err)
	}

	return c, nil
}

func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	attrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}
	if len(attrs.CORS) > 0 {
		return nil
	}

	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          3600,
			Methods:         []string{"GET", "HEAD"},
			Origins:         []string{"*"},
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %v", err)
	}
	return nil
}

// UploadAttachment stores a chat attachment as a public object and
// returns its download URL.
func (c *CloudStorageClient) UploadAttachment(ctx context.Context, chatID, kind, contentType string, file io.Reader) (string, error) {
	ext, ok := ExtensionFor(kind, contentType)
	if !ok {
		return "", fmt.Errorf("unsupported %s content type %q", kind, contentType)
	}

	name := ObjectName(chatID, kind, ext, time.Now())
	obj := c.client.Bucket(c.bucketName).Object(name)

	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return PublicURL(c.bucketName, name), nil
}

// DeleteAttachment removes an object previously returned by UploadAttachment.
func (c *CloudStorageClient) DeleteAttachment(ctx context.Context, fileURL string) error {
	prefix := publicHost + c.bucketName + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	if err := c.client.Bucket(c.bucketName).Object(strings.TrimPrefix(fileURL, prefix)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
