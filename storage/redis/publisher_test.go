package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAlertChannelRoundTrip(t *testing.T) {
	id := uuid.New()

	channel := AlertChannel(id)
	assert.Equal(t, "alerts:"+id.String(), channel)

	got, ok := ParseAlertChannel(channel)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestParseAlertChannelRejects(t *testing.T) {
	for _, channel := range []string{"btc", "alerts:", "alerts:not-a-uuid", "prices:" + uuid.NewString()} {
		_, ok := ParseAlertChannel(channel)
		assert.False(t, ok, channel)
	}
}

func TestPublisherReportsUnreachableServer(t *testing.T) {
	client := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := NewPublisher(client).Notify(ctx, models.AlertNotification{UserID: uuid.New(), Kind: models.NotificationPulse})
	assert.Error(t, err)
}
