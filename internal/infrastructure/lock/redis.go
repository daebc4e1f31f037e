package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

var _ inventory.ItemLocker = (*RedisLocker)(nil)

const keyPrefix = "cafeteria:lock:item:"

// RedisLocker bloqueo distribuido por ítem sobre bsm/redislock, para varias instancias de la API.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewRedisLocker construye el locker. ttl es la vigencia del bloqueo (debe superar la duración
// de una transacción de ledger); wait cuánto se reintenta antes de rendirse.
func NewRedisLocker(rdb redis.UniversalClient, ttl, wait time.Duration, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, wait: wait, log: log.Component("lock")}
}

// Lock obtiene el bloqueo reintentando cada 50ms hasta wait. Si no lo consigue devuelve
// domain.ErrLockNotObtained.
func (l *RedisLocker) Lock(ctx context.Context, itemID string) (func(), error) {
	key := keyPrefix + itemID
	retries := int(l.wait / (50 * time.Millisecond))
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), retries),
	}

	lk, err := l.client.Obtain(ctx, key, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock %s: %w", key, err)
	}

	return func() {
		// Se libera con un contexto propio: el de la petición puede estar cancelado.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lk.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el bloqueo")
		}
	}, nil
}
