package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/predictor/prediction-ledger-poc/pkg/contracts/events"
)

// KafkaPublisher emite os eventos do ledger em três tópicos separados.
type KafkaPublisher struct {
	BetPlaced     *kafka.Writer
	EventResolved *kafka.Writer
	BetSettled    *kafka.Writer
}

func NewKafkaPublisher(betPlaced, eventResolved, betSettled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		BetPlaced:     betPlaced,
		EventResolved: eventResolved,
		BetSettled:    betSettled,
	}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.BetPlaced.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", e.EventID)),
		Value: b,
	})
}

func (p *KafkaPublisher) PublishEventResolved(ctx context.Context, e events.EventResolved) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.EventResolved.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", e.EventID)),
		Value: b,
	})
}

// PublishBetSettled emite uma mensagem por aposta liquidada, chaveada pelo
// evento pra manter a ordem da varredura dentro da partição.
func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.BetSettled.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", e.EventID)),
		Value: b,
	})
}
