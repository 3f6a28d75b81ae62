package progress

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 与默认 TTL
const (
	slotKey        = "pump-monitor:progress:slot"
	defaultTTL     = 24 * time.Hour
	requestTimeout = 3 * time.Second
)

// Store 在 Redis 里记录流已推进到的 slot，用于重启后 from_slot 断点续传。
// 只存进度水位，不存任何事件数据。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttlHours int) *Store {
	ttl := defaultTTL
	if ttlHours > 0 {
		ttl = time.Duration(ttlHours) * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// MarkSlot 写入最新 slot 水位。slot 推送本身有序，直接覆盖即可。
func (s *Store) MarkSlot(ctx context.Context, slot uint64) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return s.rdb.Set(ctx, slotKey, slot, s.ttl).Err()
}

// LastSlot 读取上次记录的 slot 水位，无记录时 ok 为 false（不算错误）。
func (s *Store) LastSlot(ctx context.Context) (slot uint64, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	val, err := s.rdb.Get(ctx, slotKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	slot, err = strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return slot, true, nil
}
