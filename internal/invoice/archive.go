package invoice

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

const DefaultLinkExpiry = 7 * 24 * time.Hour

// MinioArchive range les factures sous invoices/<order>.pdf et retourne une URL signée
type MinioArchive struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinioArchive(client *minio.Client, bucket string, expiry time.Duration) *MinioArchive {
	if expiry <= 0 {
		expiry = DefaultLinkExpiry
	}
	return &MinioArchive{client: client, bucket: bucket, expiry: expiry}
}

func ObjectName(orderID string) string {
	return "invoices/" + orderID + ".pdf"
}

func (a *MinioArchive) Store(ctx context.Context, orderID string, pdf []byte) (string, error) {
	key := ObjectName(orderID)

	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return a.Link(ctx, orderID)
}

// Link génère une URL signée vers une facture déjà archivée
func (a *MinioArchive) Link(ctx context.Context, orderID string) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, ObjectName(orderID), a.expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("URL signée %s: %w", orderID, err)
	}
	return u.String(), nil
}
