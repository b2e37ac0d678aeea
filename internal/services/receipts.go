package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/himanshidesai31/kickera/internal/database"
)

// Archive des reçus de paiement dans MinIO. Meilleur effort : si MinIO n'est
// pas configuré, les reçus ne sont simplement pas archivés.

func receiptKey(orderID string) string {
	return fmt.Sprintf("receipts/%s.html", orderID)
}

// UploadReceipt archive le reçu HTML d'une commande payée
func UploadReceipt(ctx context.Context, orderID string, html []byte) error {
	if database.MinIO == nil {
		return fmt.Errorf("MinIO non initialisé")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	_, err := database.MinIO.PutObject(ctx, bucket, receiptKey(orderID),
		bytes.NewReader(html), int64(len(html)),
		minio.PutObjectOptions{ContentType: "text/html; charset=utf-8"})
	return err
}

// ReceiptURL retourne une URL signée (24h) vers le reçu archivé,
// ou "" si l'archive est indisponible
func ReceiptURL(ctx context.Context, orderID string) string {
	if database.MinIO == nil {
		return ""
	}

	bucket := os.Getenv("MINIO_BUCKET")
	presigned, err := database.MinIO.PresignedGetObject(ctx, bucket,
		receiptKey(orderID), 24*time.Hour, url.Values{})
	if err != nil {
		return ""
	}
	return presigned.String()
}
