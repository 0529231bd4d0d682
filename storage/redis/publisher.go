package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const alertChannelPrefix = "alerts:"

// AlertChannel is the pub/sub channel carrying one user's notifications.
func AlertChannel(userID uuid.UUID) string {
	return alertChannelPrefix + userID.String()
}

// ParseAlertChannel extracts the user id from an alert channel name.
func ParseAlertChannel(channel string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(channel, alertChannelPrefix)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// Publisher broadcasts alert notifications as JSON.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Notify(ctx context.Context, n models.AlertNotification) error {
	const op = "redis.Publisher.Notify"

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.client.Publish(ctx, AlertChannel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
