package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ammrouter/quoter/internal/domain"
)

// RedisSource is the distributed PoolDirectory/PoolSource pair (§11): an
// out-of-process collector writes PoolSnapshots to Redis keyed by pool id,
// with a token_pair -> pool ids set index, the same layout as the teacher's
// RedisStore. The router's own PoolCache stays the in-process source of
// truth for routing; Redis only refills it.
type RedisSource struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSource connects to addr/password and uses prefix for all keys
// (the teacher defaults to "dex:"; here "quoter:").
func NewRedisSource(addr, password, prefix string) *RedisSource {
	if prefix == "" {
		prefix = "quoter:"
	}
	return &RedisSource{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: 0}),
		prefix: prefix,
		ttl:    24 * time.Hour,
	}
}

func (rs *RedisSource) poolKey(id domain.PoolId) string {
	return fmt.Sprintf("%spool:%s", rs.prefix, id.Normalize())
}

func (rs *RedisSource) allPoolsKey() string {
	return rs.prefix + "all_pools"
}

func (rs *RedisSource) tokenPairKey(a, b domain.TokenId) (string, error) {
	na, nb, err := domain.SortTokens(a, b)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%stoken_pair:%s:%s", rs.prefix, na, nb), nil
}

// wireSnapshot mirrors PoolSnapshot but with reserves as decimal strings,
// the same JSON convention the teacher uses for big.Int fields.
type wireSnapshot struct {
	PoolID     string `json:"pool_id"`
	TokenA     string `json:"token_a"`
	TokenB     string `json:"token_b"`
	ReserveA   string `json:"reserve_a"`
	ReserveB   string `json:"reserve_b"`
	FeeBps     uint32 `json:"fee_bps"`
	CapturedAt int64  `json:"captured_at"`
}

func toWire(s domain.PoolSnapshot) wireSnapshot {
	return wireSnapshot{
		PoolID: string(s.PoolID), TokenA: string(s.TokenA), TokenB: string(s.TokenB),
		ReserveA: s.ReserveA.String(), ReserveB: s.ReserveB.String(),
		FeeBps: s.FeeBps, CapturedAt: s.CapturedAt,
	}
}

func (w wireSnapshot) toDomain() (domain.PoolSnapshot, error) {
	const op = "collector.RedisSource.decode"
	reserveA, ok := new(big.Int).SetString(w.ReserveA, 10)
	if !ok {
		return domain.PoolSnapshot{}, domain.NewError(op, domain.CacheError, "malformed reserve_a %q", w.ReserveA)
	}
	reserveB, ok := new(big.Int).SetString(w.ReserveB, 10)
	if !ok {
		return domain.PoolSnapshot{}, domain.NewError(op, domain.CacheError, "malformed reserve_b %q", w.ReserveB)
	}
	return domain.PoolSnapshot{
		PoolID: domain.PoolId(w.PoolID), TokenA: domain.TokenId(w.TokenA), TokenB: domain.TokenId(w.TokenB),
		ReserveA: reserveA, ReserveB: reserveB, FeeBps: w.FeeBps, CapturedAt: w.CapturedAt,
	}, nil
}

// PutSnapshot writes a snapshot collected out-of-process, the counterpart
// to LoadSnapshot; it is how a long-running collector feeds this store.
func (rs *RedisSource) PutSnapshot(ctx context.Context, snapshot domain.PoolSnapshot) error {
	const op = "collector.RedisSource.PutSnapshot"
	if err := snapshot.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(toWire(snapshot))
	if err != nil {
		return domain.WrapError(op, domain.CacheError, err, "failed to marshal snapshot")
	}
	if err := rs.client.Set(ctx, rs.poolKey(snapshot.PoolID), data, rs.ttl).Err(); err != nil {
		return domain.WrapError(op, domain.CacheError, err, "failed to store snapshot")
	}
	if err := rs.client.SAdd(ctx, rs.allPoolsKey(), string(snapshot.PoolID.Normalize())).Err(); err != nil {
		return domain.WrapError(op, domain.CacheError, err, "failed to index pool id")
	}
	pairKey, err := rs.tokenPairKey(snapshot.TokenA, snapshot.TokenB)
	if err != nil {
		return err
	}
	if err := rs.client.SAdd(ctx, pairKey, string(snapshot.PoolID.Normalize())).Err(); err != nil {
		return domain.WrapError(op, domain.CacheError, err, "failed to index token pair")
	}
	rs.client.Expire(ctx, pairKey, rs.ttl)
	return nil
}

// ListPools implements router.PoolDirectory.
func (rs *RedisSource) ListPools(ctx context.Context) ([]domain.PoolId, error) {
	const op = "collector.RedisSource.ListPools"
	members, err := rs.client.SMembers(ctx, rs.allPoolsKey()).Result()
	if err != nil {
		return nil, domain.WrapError(op, domain.CacheError, err, "failed to list pools")
	}
	ids := make([]domain.PoolId, len(members))
	for i, m := range members {
		ids[i] = domain.PoolId(m)
	}
	return ids, nil
}

// LoadSnapshot implements router.PoolSource.
func (rs *RedisSource) LoadSnapshot(ctx context.Context, id domain.PoolId) (domain.PoolSnapshot, error) {
	const op = "collector.RedisSource.LoadSnapshot"
	data, err := rs.client.Get(ctx, rs.poolKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.PoolSnapshot{}, domain.NewError(op, domain.CacheError, "pool %q not found in redis", id)
		}
		return domain.PoolSnapshot{}, domain.WrapError(op, domain.CacheError, err, "failed to load snapshot")
	}
	var w wireSnapshot
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return domain.PoolSnapshot{}, domain.WrapError(op, domain.CacheError, err, "failed to decode snapshot")
	}
	return w.toDomain()
}

// PoolsForTokenPair returns the pool ids previously indexed for the
// (tokenA, tokenB) pair, regardless of order.
func (rs *RedisSource) PoolsForTokenPair(ctx context.Context, tokenA, tokenB domain.TokenId) ([]domain.PoolId, error) {
	const op = "collector.RedisSource.PoolsForTokenPair"
	key, err := rs.tokenPairKey(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	members, err := rs.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, domain.WrapError(op, domain.CacheError, err, "failed to list pools for token pair")
	}
	ids := make([]domain.PoolId, len(members))
	for i, m := range members {
		ids[i] = domain.PoolId(m)
	}
	return ids, nil
}

// Close releases the underlying Redis client connection.
func (rs *RedisSource) Close() error {
	return rs.client.Close()
}
