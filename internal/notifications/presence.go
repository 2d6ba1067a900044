package notifications

import (
	"context"
	"strconv"
	"sync"
	"time"

	"appfeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	defaultWatchedSetKey  = "ws:watched_apps"
	defaultLastSeenKeyNS  = "ws:app_seen:"
	defaultWatchTTL       = 90 * time.Second
	defaultUnwatchGrace   = 5 * time.Second
	defaultReaperInterval = 60 * time.Second
)

// PresenceConfig controls how app watch state is mirrored in Redis.
type PresenceConfig struct {
	WatchedSetKey  string
	LastSeenPrefix string
	LastSeenTTL    time.Duration
	UnwatchGrace   time.Duration
	ReaperInterval time.Duration
}

// Presence tracks which apps have live viewers across every server process.
// Local connection counts are authoritative for this process; Redis carries
// the cluster view with a last-seen TTL per app.
type Presence struct {
	rdb *redis.Client

	mu          sync.RWMutex
	localCounts map[string]int
	unwatch     map[string]*time.Timer

	watchedSetKey  string
	lastSeenPrefix string
	lastSeenTTL    time.Duration
	grace          time.Duration
	reaperInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresence creates a presence tracker and starts the Redis reaper when
// Redis is available.
func NewPresence(rdb *redis.Client, cfg PresenceConfig) *Presence {
	p := &Presence{
		rdb:            rdb,
		localCounts:    make(map[string]int),
		unwatch:        make(map[string]*time.Timer),
		watchedSetKey:  defaultWatchedSetKey,
		lastSeenPrefix: defaultLastSeenKeyNS,
		lastSeenTTL:    defaultWatchTTL,
		grace:          defaultUnwatchGrace,
		reaperInterval: defaultReaperInterval,
		stopCh:         make(chan struct{}),
	}
	if cfg.WatchedSetKey != "" {
		p.watchedSetKey = cfg.WatchedSetKey
	}
	if cfg.LastSeenPrefix != "" {
		p.lastSeenPrefix = cfg.LastSeenPrefix
	}
	if cfg.LastSeenTTL > 0 {
		p.lastSeenTTL = cfg.LastSeenTTL
	}
	if cfg.UnwatchGrace > 0 {
		p.grace = cfg.UnwatchGrace
	}
	if cfg.ReaperInterval > 0 {
		p.reaperInterval = cfg.ReaperInterval
	}

	if p.rdb != nil {
		go p.reaperLoop()
	}
	return p
}

// Stop halts the reaper and pending unwatch timers.
func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.mu.Lock()
		for appID, t := range p.unwatch {
			t.Stop()
			delete(p.unwatch, appID)
		}
		p.mu.Unlock()
	})
}

// Watch records one more local viewer of appID.
func (p *Presence) Watch(ctx context.Context, appID string) {
	p.mu.Lock()
	if t, ok := p.unwatch[appID]; ok {
		t.Stop()
		delete(p.unwatch, appID)
	}
	p.localCounts[appID]++
	p.mu.Unlock()

	p.Touch(ctx, appID)
}

// Touch refreshes the app's last-seen key.
func (p *Presence) Touch(ctx context.Context, appID string) {
	if p.rdb == nil {
		return
	}
	if err := p.rdb.SAdd(ctx, p.watchedSetKey, appID).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("presence_sadd").Inc()
		return
	}
	if err := p.rdb.SetEx(ctx, p.lastSeenKey(appID), strconv.FormatInt(time.Now().Unix(), 10), p.lastSeenTTL).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("presence_setex").Inc()
	}
}

// Unwatch drops one local viewer. After the last one leaves the app stays
// locally watched for the grace period; the Redis entry lapses with its TTL
// since other processes may share it.
func (p *Presence) Unwatch(appID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.localCounts[appID]
	if !ok {
		return
	}
	if n > 1 {
		p.localCounts[appID] = n - 1
		return
	}
	delete(p.localCounts, appID)

	if t, ok := p.unwatch[appID]; ok {
		t.Stop()
	}
	p.unwatch[appID] = time.AfterFunc(p.grace, func() {
		p.mu.Lock()
		delete(p.unwatch, appID)
		p.mu.Unlock()
	})
}

// IsWatched reports whether any process has a viewer of appID.
func (p *Presence) IsWatched(ctx context.Context, appID string) bool {
	p.mu.RLock()
	local := p.localCounts[appID] > 0
	pending := p.unwatch[appID] != nil
	p.mu.RUnlock()
	if local || pending {
		return true
	}
	if p.rdb == nil {
		return false
	}
	n, err := p.rdb.Exists(ctx, p.lastSeenKey(appID)).Result()
	return err == nil && n > 0
}

// reapOnce removes watched-set members whose last-seen key expired.
func (p *Presence) reapOnce(ctx context.Context) {
	if p.rdb == nil {
		return
	}
	members, err := p.rdb.SMembers(ctx, p.watchedSetKey).Result()
	if err != nil {
		return
	}
	for _, appID := range members {
		n, err := p.rdb.Exists(ctx, p.lastSeenKey(appID)).Result()
		if err != nil || n > 0 {
			continue
		}
		p.mu.RLock()
		local := p.localCounts[appID] > 0
		p.mu.RUnlock()
		if local {
			p.Touch(ctx, appID)
			continue
		}
		_ = p.rdb.SRem(ctx, p.watchedSetKey, appID).Err()
	}
}

func (p *Presence) reaperLoop() {
	ticker := time.NewTicker(p.reaperInterval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.refreshLocal(ctx)
			p.reapOnce(ctx)
		}
	}
}

// refreshLocal keeps last-seen keys alive for long-lived local viewers.
func (p *Presence) refreshLocal(ctx context.Context) {
	p.mu.RLock()
	apps := make([]string, 0, len(p.localCounts))
	for appID := range p.localCounts {
		apps = append(apps, appID)
	}
	p.mu.RUnlock()
	for _, appID := range apps {
		p.Touch(ctx, appID)
	}
}

func (p *Presence) lastSeenKey(appID string) string {
	return p.lastSeenPrefix + appID
}
