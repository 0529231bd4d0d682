package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// SnapshotMsg is one coin of a stored market snapshot.
type SnapshotMsg struct {
	CoinID           string              `json:"coinId"`
	Symbol           string              `json:"symbol"`
	PriceUSD         decimal.NullDecimal `json:"priceUsd"`
	MarketCap        *float64            `json:"marketCap"`
	MarketCapRank    *int                `json:"marketCapRank"`
	TotalVolume      *float64            `json:"totalVolume"`
	ChangePercent24h *float64            `json:"changePercent24h"`
	FetchedAt        int64               `json:"fetchedAt"`
}

// Producer streams every stored snapshot to a topic keyed by coin id.
type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
	now    func() time.Time
}

func NewProducer(cfg config.KafkaConfig, log *slog.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchSize:              cfg.BatchSize,
			BatchTimeout:           cfg.BatchTimeout,
			RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
			MaxAttempts:            cfg.MaxAttempts,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
		log: log,
		now: time.Now,
	}
}

func (p *Producer) PublishSnapshot(ctx context.Context, coins []models.Coin) error {
	const op = "kafka.Producer.PublishSnapshot"

	if len(coins) == 0 {
		return nil
	}

	msgs, err := snapshotMessages(coins, p.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.log.Debug("market snapshot published", slog.Int("coins", len(msgs)), slog.String("topic", p.writer.Topic))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func snapshotMessages(coins []models.Coin, at time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(coins))

	for _, c := range coins {
		value, err := json.Marshal(SnapshotMsg{
			CoinID:           c.ID,
			Symbol:           c.Symbol,
			PriceUSD:         c.PriceUSD,
			MarketCap:        c.MarketCap,
			MarketCapRank:    c.MarketCapRank,
			TotalVolume:      c.TotalVolume,
			ChangePercent24h: c.ChangePercent24h,
			FetchedAt:        at.UnixMilli(),
		})
		if err != nil {
			return nil, err
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(c.ID),
			Value: value,
			Time:  at,
		})
	}

	return msgs, nil
}
