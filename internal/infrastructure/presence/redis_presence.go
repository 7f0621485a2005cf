package presence

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlinePrefix   = "presence:"
	lastSeenPrefix = "lastseen:"
)

// Presence is the realtime state of one user.
type Presence struct {
	Online   bool  `json:"online"`
	LastSeen int64 `json:"last_seen"`
}

type Config struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
	TTL      time.Duration
}

// Tracker keeps presence in Redis. The online key expires on its own, so
// a crashed connection reads as offline once its heartbeat stops.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewClient(cfg Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Tracker{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Ping verifies Redis connectivity.
func (t *Tracker) Ping(ctx context.Context) error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// SetOnline marks uid online and refreshes the heartbeat window.
func (t *Tracker) SetOnline(ctx context.Context, uid string) error {
	ms := t.now().UnixMilli()
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, onlinePrefix+uid, ms, t.ttl)
		pipe.Set(ctx, lastSeenPrefix+uid, ms, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set online %s: %w", uid, err)
	}
	return nil
}

// SetOffline drops the online key and returns the recorded last-seen time.
func (t *Tracker) SetOffline(ctx context.Context, uid string) (int64, error) {
	ms := t.now().UnixMilli()
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, onlinePrefix+uid)
		pipe.Set(ctx, lastSeenPrefix+uid, ms, 0)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis set offline %s: %w", uid, err)
	}
	return ms, nil
}

// Lookup returns the presence of each uid. Users never seen are absent
// from the map.
func (t *Tracker) Lookup(ctx context.Context, uids []string) (map[string]Presence, error) {
	result := make(map[string]Presence, len(uids))
	if len(uids) == 0 {
		return result, nil
	}

	online := make([]*redis.IntCmd, len(uids))
	lastSeen := make([]*redis.StringCmd, len(uids))
	_, err := t.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, uid := range uids {
			online[i] = pipe.Exists(ctx, onlinePrefix+uid)
			lastSeen[i] = pipe.Get(ctx, lastSeenPrefix+uid)
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis presence lookup: %w", err)
	}

	for i, uid := range uids {
		isOnline := online[i].Val() > 0
		seen, _ := strconv.ParseInt(lastSeen[i].Val(), 10, 64)
		if !isOnline && seen == 0 {
			continue
		}
		result[uid] = Presence{Online: isOnline, LastSeen: seen}
	}
	return result, nil
}

// Close releases Redis resources.
func (t *Tracker) Close() error {
	return t.client.Close()
}
