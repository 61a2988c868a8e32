package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/predictor/prediction-ledger-poc/pkg/contracts/events"
)

// Source abstrai o reader Kafka pro loop ser testável.
type Source interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Sink abstrai o writer de DLQ.
type Sink interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Store interface {
	InsertSettlement(ctx context.Context, e events.BetSettled) error
}

type Board interface {
	RecordWin(ctx context.Context, userID uint32, payout uint64) error
}

// Processor consome bet_settled, persiste o histórico e alimenta o ranking.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa.
type Processor struct {
	Log    *zap.Logger
	Reader Source
	Repo   Store
	Board  Board
	DLQ    Sink

	Retries      int
	RetryBackoff time.Duration

	OnConsumed func()       // métricas (counter++)
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var settled events.BetSettled
		if err := json.Unmarshal(m.Value, &settled); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			p.deadLetter(ctx, m)
			continue
		}

		if err := p.processOne(ctx, settled); err != nil {
			p.Log.Error("process settlement",
				zap.Uint32("betId", settled.BetID),
				zap.Error(err))
			if p.OnError != nil {
				p.OnError("persist")
			}
			p.deadLetter(ctx, m)
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist()
		}
	}
}

// processOne persiste a liquidação com retry simples e atualiza o ranking.
func (p *Processor) processOne(ctx context.Context, settled events.BetSettled) error {
	retries := p.Retries
	if retries <= 0 {
		retries = 3
	}
	backoff := p.RetryBackoff
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}

	var err error
	for i := 0; i < retries; i++ {
		if err = p.Repo.InsertSettlement(ctx, settled); err == nil {
			break
		}
		time.Sleep(time.Duration(i+1) * backoff)
	}
	if err != nil {
		return err
	}

	if settled.Won {
		// ranking é melhor-esforço; perder um incremento não invalida o histórico
		if berr := p.Board.RecordWin(ctx, settled.UserID, settled.Payout); berr != nil {
			p.Log.Warn("leaderboard update failed",
				zap.Uint32("userId", settled.UserID),
				zap.Error(berr))
			if p.OnError != nil {
				p.OnError("leaderboard")
			}
		}
	}
	return nil
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	if err := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value}); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("dlq")
		}
	}
}
