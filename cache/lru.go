package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// entry 单个缓存条目，expiresAt 为零值表示永不过期
type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// lruStore 严格 LRU + TTL 的进程内存储。
// 链表头部是最近使用的条目，尾部最久未使用；所有操作持 mu。
type lruStore struct {
	mu       sync.Mutex
	order    *list.List               // *entry
	items    map[string]*list.Element // key -> element
	capacity int
	ttl      time.Duration
	now      func() time.Time

	logger    clog.Logger
	hits      metrics.Counter
	misses    metrics.Counter
	evictions metrics.Counter
}

func newLRUStore(cfg *StoreConfig, opts ...Option) (*lruStore, error) {
	o := applyOptions(opts...)

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = 1024
	}
	if capacity < 0 || cfg.DefaultTTL < 0 {
		return nil, ErrBadConfig
	}

	s := &lruStore{
		order:    list.New(),
		items:    make(map[string]*list.Element),
		capacity: capacity,
		ttl:      cfg.DefaultTTL,
		now:      o.now,
		logger:   o.logger,
	}

	var err error
	if s.hits, err = o.meter.Counter(MetricHitsTotal, "Local store read hits"); err != nil {
		return nil, err
	}
	if s.misses, err = o.meter.Counter(MetricMissesTotal, "Local store read misses"); err != nil {
		return nil, err
	}
	if s.evictions, err = o.meter.Counter(MetricEvictionsTotal, "Local store evictions"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *lruStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		s.misses.Inc(context.Background())
		return nil, false
	}
	e := el.Value.(*entry)
	if e.expired(s.now()) {
		s.removeElement(el)
		s.misses.Inc(context.Background())
		return nil, false
	}

	s.order.MoveToFront(el)
	s.hits.Inc(context.Background())
	return e.value, true
}

func (s *lruStore) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		s.order.MoveToFront(el)
		return
	}

	if s.order.Len() >= s.capacity {
		s.evictOne()
	}
	el := s.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	s.items[key] = el
}

func (s *lruStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.removeElement(el)
	}
}

func (s *lruStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *lruStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.items = make(map[string]*list.Element)
}

// evictOne 腾出一个名额：先顺手清掉已过期的条目，
// 没有过期条目时淘汰链表尾部（最久未使用）。调用方必须持有 mu。
func (s *lruStore) evictOne() {
	now := s.now()
	purged := false
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry).expired(now) {
			s.removeElement(el)
			purged = true
		}
		el = prev
	}
	if purged {
		return
	}

	if tail := s.order.Back(); tail != nil {
		e := tail.Value.(*entry)
		s.removeElement(tail)
		s.evictions.Inc(context.Background())
		s.logger.Debug("evicted least recently used entry", clog.String("key", e.key))
	}
}

func (s *lruStore) removeElement(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*entry).key)
}
