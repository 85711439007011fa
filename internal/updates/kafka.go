package updates

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"storebridge/internal/bridge/models"
)

// Kafka publishes update events to a Kafka topic as JSON records keyed by
// transaction id, so per-transaction ordering survives partitioning.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka constructs a Kafka publisher on the given topic.
func NewKafka(client *kgo.Client, topic string) *Kafka {
	return &Kafka{client: client, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, txns []models.Transaction) error {
	records := make([]*kgo.Record, 0, len(txns))
	for _, txn := range txns {
		payload, err := json.Marshal(txn)
		if err != nil {
			return fmt.Errorf("marshal transaction %d: %w", txn.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(strconv.FormatInt(txn.ID, 10)),
			Value: payload,
		})
	}
	if err := k.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", k.topic, err)
	}
	return nil
}
