package archive

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis connection backing a RedisStore.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration

	// KeyPrefix namespaces all keys written by the store. Default "verdict".
	KeyPrefix string

	// RecordTTL expires archived records after the given duration. Zero
	// keeps them forever.
	RecordTTL time.Duration
}

// RedisStore implements Store on Redis using go-redis/v9. Records are
// stored as JSON values, ranked in a sorted set by risk score, and
// announced on a pub/sub channel as they are saved.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store with the given options.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "verdict"
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: opts.KeyPrefix,
		ttl:    opts.RecordTTL,
	}, nil
}

func (s *RedisStore) recordKey(id string) string {
	return fmt.Sprintf("%s:record:%s", s.prefix, id)
}

func (s *RedisStore) scoreKey() string {
	return fmt.Sprintf("%s:records:by_score", s.prefix)
}

func (s *RedisStore) snapshotKey(sessionID string) string {
	return fmt.Sprintf("%s:snapshot:%s", s.prefix, sessionID)
}

func (s *RedisStore) channel() string {
	return fmt.Sprintf("%s:confirmed", s.prefix)
}

// Save archives a record, ranks it by score, and announces it on the
// pub/sub channel.
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.client.Set(ctx, s.recordKey(record.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store record %s: %w", record.ID, err)
	}

	member := redis.Z{Score: record.Score.Value, Member: record.ID}
	if err := s.client.ZAdd(ctx, s.scoreKey(), member).Err(); err != nil {
		return fmt.Errorf("failed to rank record %s: %w", record.ID, err)
	}

	if err := s.client.Publish(ctx, s.channel(), data).Err(); err != nil {
		return fmt.Errorf("failed to announce record %s: %w", record.ID, err)
	}
	return nil
}

// Get returns a record by ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	return &record, nil
}

// List returns all archived records. Records whose value has expired are
// skipped and pruned from the score index.
func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	return s.fetchRange(ctx, func() ([]string, error) {
		return s.client.ZRange(ctx, s.scoreKey(), 0, -1).Result()
	})
}

// Top returns up to n records with the highest risk scores, highest first.
func (s *RedisStore) Top(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.fetchRange(ctx, func() ([]string, error) {
		return s.client.ZRevRange(ctx, s.scoreKey(), 0, int64(n-1)).Result()
	})
}

func (s *RedisStore) fetchRange(ctx context.Context, ids func() ([]string, error)) ([]Record, error) {
	members, err := ids()
	if err != nil {
		return nil, fmt.Errorf("failed to read score index: %w", err)
	}

	records := make([]Record, 0, len(members))
	for _, id := range members {
		record, err := s.Get(ctx, id)
		if err == ErrNotFound {
			s.client.ZRem(ctx, s.scoreKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// Subscribe streams records as they are saved, until the context is
// cancelled. Malformed messages are skipped.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan Record, error) {
	pubsub := s.client.Subscribe(ctx, s.channel())

	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel(), err)
	}

	out := make(chan Record)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var record Record
				if err := json.Unmarshal([]byte(msg.Payload), &record); err != nil {
					continue
				}
				select {
				case out <- record:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// SaveSnapshot persists a session snapshot, replacing any previous one for
// the same session.
func (s *RedisStore) SaveSnapshot(ctx context.Context, snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.snapshotKey(snapshot.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", snapshot.SessionID, err)
	}
	return nil
}

// GetSnapshot returns the snapshot for a session.
func (s *RedisStore) GetSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %w", sessionID, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", sessionID, err)
	}
	return &snapshot, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
