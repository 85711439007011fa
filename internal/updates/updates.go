// Package updates provides implementations of the bridge's outbound push
// channel. Each implementation delivers one batch of normalized transactions
// per verified transaction event.
package updates

import (
	"context"
	"log/slog"

	"storebridge/internal/bridge/models"
)

// Log is a development publisher that writes update events to the log.
type Log struct {
	logger *slog.Logger
}

// NewLog constructs a Log publisher.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, txns []models.Transaction) error {
	ids := make([]int64, 0, len(txns))
	for _, t := range txns {
		ids = append(ids, t.ID)
	}
	l.logger.InfoContext(ctx, "transactions updated", "transaction_ids", ids)
	return nil
}
