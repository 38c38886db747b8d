package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in Redis so several dashboard processes share
// one session. Changes are broadcast on a pub/sub channel.
type RedisStore struct {
	notifier
	client  *redis.Client
	key     string
	channel string
	origin  string
}

type redisEvent struct {
	Origin  string `json:"origin"`
	Present bool   `json:"present"`
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mina-dashboard"
	}
	return &RedisStore{
		client:  client,
		key:     fmt.Sprintf("%s:%s", prefix, TokenKey),
		channel: fmt.Sprintf("%s:%s:events", prefix, TokenKey),
		origin:  uuid.NewString(),
	}
}

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil || (err == nil && token == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return err
	}
	s.announce(ctx, token != "")
	return nil
}

func (s *RedisStore) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return err
	}
	s.announce(ctx, false)
	return nil
}

func (s *RedisStore) announce(ctx context.Context, present bool) {
	s.publish(Event{Present: present})

	payload, _ := json.Marshal(redisEvent{Origin: s.origin, Present: present})
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		log.Printf("[WARN] Session Store: publish change failed: %v", err)
	}
}

// Listen relays changes made by other processes to local subscribers. It
// returns once the subscription is confirmed; relaying stops with ctx.
func (s *RedisStore) Listen(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	go func() {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev redisEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("[WARN] Session Store: bad change event: %v", err)
					continue
				}
				if ev.Origin == s.origin {
					continue
				}
				s.publish(Event{Present: ev.Present})
			}
		}
	}()
	return nil
}

var _ Store = (*RedisStore)(nil)
