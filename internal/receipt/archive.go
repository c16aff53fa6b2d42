package receipt

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/healthfirst/connect/pkg/logging"
)

type s3API interface {
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes the plain-text receipt export to object storage, keyed by
// transaction id. Archiving is best effort: the receipt page never depends on
// the archive having succeeded.
type Archiver struct {
	client s3API
	bucket string
	logger *logging.Logger
}

func NewArchiver(client s3API, bucket string, logger *logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Archiver{client: client, bucket: bucket, logger: logger}
}

// Enabled reports whether the deployment configured an archive bucket.
func (a *Archiver) Enabled() bool {
	return a != nil && a.client != nil && a.bucket != ""
}

// Archive stores the export under receipts/<transactionId>.txt.
func (a *Archiver) Archive(ctx context.Context, v View) error {
	if !a.Enabled() {
		return nil
	}

	key := fmt.Sprintf("receipts/%s.txt", v.TransactionID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(v.Export())),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("receipt: archive %s: %w", v.TransactionID, err)
	}

	a.logger.Debug("receipt archived", "bucket", a.bucket, "key", key)
	return nil
}
