package breaker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/fusebox/connector"
	"github.com/ceyewan/fusebox/xerrors"
)

// cacheRecord cache 驱动的计数载荷（内部使用）
// 时间戳存为 Unix 秒，0 表示缺省。
type cacheRecord struct {
	ConsecutiveSuccesses int64 `json:"consecutive_successes" msgpack:"consecutive_successes"`
	ConsecutiveFailures  int64 `json:"consecutive_failures" msgpack:"consecutive_failures"`
	TotalSuccesses       int64 `json:"total_successes" msgpack:"total_successes"`
	TotalFailures        int64 `json:"total_failures" msgpack:"total_failures"`
	LastSuccessAt        int64 `json:"last_success_at" msgpack:"last_success_at"`
	LastFailureAt        int64 `json:"last_failure_at" msgpack:"last_failure_at"`
}

func (r cacheRecord) toMetrics() Metrics {
	m := Metrics{
		ConsecutiveSuccesses: r.ConsecutiveSuccesses,
		ConsecutiveFailures:  r.ConsecutiveFailures,
		TotalSuccesses:       r.TotalSuccesses,
		TotalFailures:        r.TotalFailures,
	}
	if r.LastSuccessAt > 0 {
		m.LastSuccessAt = time.Unix(r.LastSuccessAt, 0)
	}
	if r.LastFailureAt > 0 {
		m.LastFailureAt = time.Unix(r.LastFailureAt, 0)
	}
	return m
}

func toCacheRecord(m Metrics) cacheRecord {
	r := cacheRecord{
		ConsecutiveSuccesses: m.ConsecutiveSuccesses,
		ConsecutiveFailures:  m.ConsecutiveFailures,
		TotalSuccesses:       m.TotalSuccesses,
		TotalFailures:        m.TotalFailures,
	}
	if !m.LastSuccessAt.IsZero() {
		r.LastSuccessAt = m.LastSuccessAt.Unix()
	}
	if !m.LastFailureAt.IsZero() {
		r.LastFailureAt = m.LastFailureAt.Unix()
	}
	return r
}

// cacheStore Redis 存储实现（非导出）
//
// 每个身份占两个逻辑键：…:state 与 …:metrics，均永久写入。
// 计数更新是读改写，同一键上的并发写入遵循最后写入者获胜。
// 策略都是阈值型判断，冷却时间又远粗于请求节奏，
// 总计数只需单调近似，不是安全性质，因此不依赖 CAS 原语。
type cacheStore struct {
	client *redis.Client
	codec  serializer
	prefix string
	clock  Clock
}

func newCacheStore(conn connector.RedisConnector, cfg StoreConfig, clock Clock) (Store, error) {
	if conn == nil {
		return nil, xerrors.Wrap(ErrConnectorRequired, "cache driver needs a redis connector")
	}

	codec, err := newSerializer(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	return &cacheStore{
		client: conn.GetClient(),
		codec:  codec,
		prefix: cfg.Prefix,
		clock:  clock,
	}, nil
}

func (cs *cacheStore) stateKey(id Identity) string {
	return id.attributeKey(cs.prefix, attrState)
}

func (cs *cacheStore) metricsKey(id Identity) string {
	return id.attributeKey(cs.prefix, attrMetrics)
}

func (cs *cacheStore) GetState(ctx context.Context, id Identity) (State, error) {
	val, err := cs.client.Get(ctx, cs.stateKey(id)).Result()
	if err == redis.Nil {
		return StateClosed, nil
	}
	if err != nil {
		return StateClosed, xerrors.Wrap(err, "breaker: failed to get state")
	}
	return parseState(val), nil
}

func (cs *cacheStore) GetMetrics(ctx context.Context, id Identity) (Metrics, error) {
	data, err := cs.client.Get(ctx, cs.metricsKey(id)).Bytes()
	if err == redis.Nil {
		return Metrics{}, nil
	}
	if err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to get metrics")
	}

	var rec cacheRecord
	if err := cs.codec.Unmarshal(data, &rec); err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to decode metrics")
	}
	return rec.toMetrics(), nil
}

func (cs *cacheStore) RecordSuccess(ctx context.Context, id Identity) (Metrics, error) {
	return cs.updateMetrics(ctx, id, func(m Metrics) Metrics {
		return m.recordSuccess(cs.clock.Now())
	})
}

func (cs *cacheStore) RecordFailure(ctx context.Context, id Identity) (Metrics, error) {
	return cs.updateMetrics(ctx, id, func(m Metrics) Metrics {
		return m.recordFailure(cs.clock.Now())
	})
}

func (cs *cacheStore) TransitionToOpen(ctx context.Context, id Identity) error {
	return cs.setState(ctx, id, StateOpen)
}

func (cs *cacheStore) TransitionToHalfOpen(ctx context.Context, id Identity) error {
	return cs.setState(ctx, id, StateHalfOpen)
}

func (cs *cacheStore) TransitionToClosed(ctx context.Context, id Identity) error {
	if err := cs.setState(ctx, id, StateClosed); err != nil {
		return err
	}
	_, err := cs.updateMetrics(ctx, id, Metrics.resetConsecutive)
	return err
}

func (cs *cacheStore) Reset(ctx context.Context, id Identity) error {
	err := cs.client.Del(ctx, cs.stateKey(id), cs.metricsKey(id)).Err()
	if err != nil {
		return xerrors.Wrap(err, "breaker: failed to reset record")
	}
	return nil
}

// setState 永久写入状态键（内部函数）
func (cs *cacheStore) setState(ctx context.Context, id Identity, state State) error {
	err := cs.client.Set(ctx, cs.stateKey(id), state.String(), 0).Err()
	if err != nil {
		return xerrors.Wrap(err, "breaker: failed to set state")
	}
	return nil
}

// updateMetrics 读改写计数键（内部函数）
func (cs *cacheStore) updateMetrics(ctx context.Context, id Identity, apply func(Metrics) Metrics) (Metrics, error) {
	current, err := cs.GetMetrics(ctx, id)
	if err != nil {
		return Metrics{}, err
	}

	updated := apply(current)

	data, err := cs.codec.Marshal(toCacheRecord(updated))
	if err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to encode metrics")
	}
	if err := cs.client.Set(ctx, cs.metricsKey(id), data, 0).Err(); err != nil {
		return Metrics{}, xerrors.Wrap(err, "breaker: failed to set metrics")
	}
	return updated, nil
}
