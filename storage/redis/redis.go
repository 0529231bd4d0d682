package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Tonic56/crypto-market-watch/internal/config"
	"github.com/redis/go-redis/v9"
)

// Message is one payload received on a subscribed channel.
type Message struct {
	Channel string
	Payload string
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Subscriber multiplexes per-user alert channels onto Messages. Messages is
// closed by Close and nothing is delivered after that.
type Subscriber struct {
	client        *redis.Client
	Messages      chan Message
	subscriptions map[string]*redis.PubSub
	mu            sync.RWMutex
	closed        bool
	log           *slog.Logger
}

func NewSubscriber(client *redis.Client, log *slog.Logger) *Subscriber {
	return &Subscriber{
		client:        client,
		Messages:      make(chan Message, 1000),
		subscriptions: make(map[string]*redis.PubSub),
		log:           log,
	}
}

// Subscribe is a no-op for a channel that is already subscribed. The
// listener stops when ctx is done or the channel is unsubscribed.
func (s *Subscriber) Subscribe(ctx context.Context, channel string) error {
	const op = "redis.Subscriber.Subscribe"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[channel]; exists {
		return nil
	}

	pubsub := s.client.Subscribe(ctx, channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("%s: %s: %w", op, channel, err)
	}

	s.subscriptions[channel] = pubsub
	s.log.Debug("alerts: subscribed", slog.String("channel", channel))

	go s.listener(ctx, pubsub)

	return nil
}

func (s *Subscriber) Unsubscribe(ctx context.Context, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pubsub, exists := s.subscriptions[channel]
	if !exists {
		return nil
	}

	delete(s.subscriptions, channel)

	if err := pubsub.Unsubscribe(ctx, channel); err != nil {
		s.log.Warn("alerts: unsubscribe failed", slog.String("channel", channel), slog.Any("error", err))
	}

	if err := pubsub.Close(); err != nil {
		s.log.Warn("alerts: close pubsub", slog.String("channel", channel), slog.Any("error", err))
	}

	s.log.Debug("alerts: unsubscribed", slog.String("channel", channel))
	return nil
}

func (s *Subscriber) listener(ctx context.Context, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			s.deliver(Message{Channel: msg.Channel, Payload: msg.Payload})
		}
	}
}

func (s *Subscriber) deliver(msg Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.Messages <- msg:
	default:
		s.log.Warn("alerts: buffer full, dropping notification", slog.String("channel", msg.Channel))
	}
}

// Close stops every subscription. The shared client is closed by its owner.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for channel, pubsub := range s.subscriptions {
		if err := pubsub.Close(); err != nil {
			s.log.Warn("alerts: close pubsub", slog.String("channel", channel), slog.Any("error", err))
		}
		delete(s.subscriptions, channel)
	}

	if !s.closed {
		close(s.Messages)
		s.closed = true
	}
	s.log.Info("alerts: subscriber closed")
}
