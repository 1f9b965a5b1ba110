package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/clawlabs/arenabot/internal/domain"
)

// TradeArchiver implements domain.TradeArchiver by serializing evicted trade
// records to JSONL and uploading one object per eviction batch. Objects are
// partitioned by day so a month of history stays browsable.
type TradeArchiver struct {
	client *Client
}

// NewTradeArchiver creates an archiver backed by the given client.
func NewTradeArchiver(client *Client) *TradeArchiver {
	return &TradeArchiver{client: client}
}

var _ domain.TradeArchiver = (*TradeArchiver)(nil)

// Archive uploads the batch. Records are never deleted from S3; eviction is
// one-way.
func (a *TradeArchiver) Archive(ctx context.Context, trades []domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	key := archiveKey(time.Now().UTC(), trades[0].ID)
	_, err = a.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: archive trades upload: %w", err)
	}
	return nil
}

// archiveKey builds the object key for one eviction batch:
//
//	archive/trades/2026-08-28/153004-<first record id>.jsonl
func archiveKey(now time.Time, firstID string) string {
	return fmt.Sprintf("archive/trades/%s/%s-%s.jsonl",
		now.Format("2006-01-02"), now.Format("150405"), firstID)
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL(records []domain.TradeRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
