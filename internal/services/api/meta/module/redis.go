package module

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// redisPinger adapts the redis client to the meta Pinger contract; a nil
// client stays nil so readiness reports it as skipped
func redisPinger(rdb *redis.Client) any {
	if rdb == nil {
		return nil
	}
	return pingAdapter{rdb}
}

type pingAdapter struct{ rdb *redis.Client }

func (p pingAdapter) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
