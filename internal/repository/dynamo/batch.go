package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/streetbite/vendorhub/internal/pkg/logger"
)

const (
	// MaxBatchItems is the BatchWriteItem request limit.
	MaxBatchItems = 25
	// MaxBatchRetries bounds resubmission of unprocessed items.
	MaxBatchRetries = 5
)

// BatchWriter writes items with BatchWriteItem. Items the service leaves
// unprocessed (throttling) are resubmitted alone with exponential backoff
// starting at 100ms.
type BatchWriter struct {
	api       API
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewBatchWriter creates a batch writer.
func NewBatchWriter(api API) *BatchWriter {
	return &BatchWriter{api: api, baseDelay: 100 * time.Millisecond, sleep: sleepCtx}
}

// Write stores all requests in table, splitting them into chunks of 25.
func (w *BatchWriter) Write(ctx context.Context, table string, reqs []types.WriteRequest) error {
	for start := 0; start < len(reqs); start += MaxBatchItems {
		end := min(start+MaxBatchItems, len(reqs))
		if err := w.writeChunk(ctx, table, reqs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *BatchWriter) writeChunk(ctx context.Context, table string, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{table: reqs}
	delay := w.baseDelay

	for attempt := 0; ; attempt++ {
		out, err := w.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("batch write to %s: %w", table, err)
		}
		left := out.UnprocessedItems[table]
		if len(left) == 0 {
			return nil
		}
		if attempt == MaxBatchRetries {
			return fmt.Errorf("batch write to %s: %d items still unprocessed after %d retries",
				table, len(left), MaxBatchRetries)
		}
		logger.Debug("resubmitting unprocessed batch items",
			"table", table, "unprocessed", len(left), "attempt", attempt+1, "wait", delay.String())
		if err := w.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		pending = map[string][]types.WriteRequest{table: left}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
