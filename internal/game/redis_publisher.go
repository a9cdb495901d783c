package game

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PocketEventsChannel carries pot and round-end events between instances.
const PocketEventsChannel = "pocket_events"

// PocketEvent is the pub/sub payload for table events.
type PocketEvent struct {
	Type       string     `json:"type"` // "ball_potted" or "round_ended"
	TableToken string     `json:"table_token"`
	BallID     int        `json:"ball_id,omitempty"`
	Remaining  *Remaining `json:"remaining,omitempty"`
	At         int64      `json:"at"`
}

func snapshotKey(token string) string {
	return "table:" + token + ":state"
}

type redisJob struct {
	token string
	snap  *Snapshot
	event *PocketEvent
}

// RedisPublisher caches table snapshots and publishes pocket events. Redis
// calls run on its own worker so a slow Redis never stalls a table loop.
type RedisPublisher struct {
	rdb       *redis.Client
	ttl       time.Duration
	saveEvery time.Duration
	jobs      chan redisJob

	mu        sync.Mutex
	lastSaved map[string]time.Time
}

// NewRedisPublisher creates a publisher; call Start to run its worker.
func NewRedisPublisher(rdb *redis.Client, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{
		rdb:       rdb,
		ttl:       ttl,
		saveEvery: time.Second,
		jobs:      make(chan redisJob, 256),
		lastSaved: make(map[string]time.Time),
	}
}

// Start processes queued writes until ctx is cancelled.
func (p *RedisPublisher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-p.jobs:
				p.handle(ctx, job)
			}
		}
	}()
}

func (p *RedisPublisher) handle(ctx context.Context, job redisJob) {
	if job.snap != nil {
		data, err := json.Marshal(job.snap)
		if err != nil {
			log.Printf("[REDIS] Failed to marshal snapshot for %s: %v", job.token, err)
		} else if err := p.rdb.SetEx(ctx, snapshotKey(job.token), data, p.ttl).Err(); err != nil {
			log.Printf("[REDIS] Failed to cache snapshot for %s: %v", job.token, err)
		}
	}
	if job.event != nil {
		data, err := json.Marshal(job.event)
		if err != nil {
			log.Printf("[REDIS] Failed to marshal %s event for %s: %v", job.event.Type, job.token, err)
			return
		}
		if err := p.rdb.Publish(ctx, PocketEventsChannel, data).Err(); err != nil {
			log.Printf("[REDIS] publish %s failed: table=%s err=%v", job.event.Type, job.token, err)
		}
	}
}

func (p *RedisPublisher) enqueue(job redisJob) {
	select {
	case p.jobs <- job:
	default:
		log.Printf("[REDIS] write queue full, dropping update for table %s", job.token)
	}
}

// TableUpdated caches the snapshot, at most once per second per table unless
// the round is no longer running.
func (p *RedisPublisher) TableUpdated(token string, snap Snapshot) {
	now := time.Now()
	p.mu.Lock()
	last, seen := p.lastSaved[token]
	due := !seen || !snap.Running || now.Sub(last) >= p.saveEvery
	if due {
		p.lastSaved[token] = now
	}
	p.mu.Unlock()

	if due {
		p.enqueue(redisJob{token: token, snap: &snap})
	}
}

func (p *RedisPublisher) BallPotted(token string, ballID int) {
	p.enqueue(redisJob{token: token, event: &PocketEvent{
		Type:       "ball_potted",
		TableToken: token,
		BallID:     ballID,
		At:         time.Now().UnixMilli(),
	}})
}

// TableClosed forgets the save throttle once a table's loop has stopped.
func (p *RedisPublisher) TableClosed(token string) {
	p.mu.Lock()
	delete(p.lastSaved, token)
	p.mu.Unlock()
}

func (p *RedisPublisher) RoundEnded(token string, rem Remaining) {
	p.mu.Lock()
	delete(p.lastSaved, token)
	p.mu.Unlock()

	p.enqueue(redisJob{token: token, event: &PocketEvent{
		Type:       "round_ended",
		TableToken: token,
		Remaining:  &rem,
		At:         time.Now().UnixMilli(),
	}})
}

// LoadSnapshot reads the cached snapshot of a table, possibly hosted elsewhere.
func LoadSnapshot(ctx context.Context, rdb *redis.Client, token string) (*Snapshot, error) {
	data, err := rdb.Get(ctx, snapshotKey(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
