//go:generate go run go.uber.org/mock/mockgen -source=../contract/contract.go -destination=../mocks/mock_contract.go -package=mocks
package presence

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const (
	// Presence keys hold the live connection id set of one user.
	// No TTL: an entry lives exactly as long as its connection set.
	userKeyPrefix = "presence:user:"
	scanCount     = 100
)

// RedisRegistry stores presence as one Redis set per user.
//
// Register and Deregister run SADD/SREM together with SCARD inside MULTI/EXEC,
// so concurrent mutations for the same owner are linearized by the store
// itself instead of a read-modify-write round-trip. Redis removes a set key
// the moment its last member is gone, which keeps the invariant that an entry
// exists iff the owner has at least one live connection.
type RedisRegistry struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisRegistry(client *redis.Client, log *slog.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, log: log}
}

func userKey(owner domain.UserID) string {
	return userKeyPrefix + owner.String()
}

func parseUserKey(key string) (domain.UserID, bool) {
	id, found := strings.CutPrefix(key, userKeyPrefix)
	if !found || id == "" {
		return "", false
	}
	return domain.UserID(id), true
}

func (r *RedisRegistry) Register(ctx context.Context, owner domain.UserID, connID string) (bool, int64, error) {
	pipe := r.client.TxPipeline()
	add := pipe.SAdd(ctx, userKey(owner), connID)
	card := pipe.SCard(ctx, userKey(owner))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("%w: %v", errors.ErrRegistryUnavailable, err)
	}
	return add.Val() == 1, card.Val(), nil
}

func (r *RedisRegistry) Deregister(ctx context.Context, owner domain.UserID, connID string) (bool, int64, error) {
	pipe := r.client.TxPipeline()
	rem := pipe.SRem(ctx, userKey(owner), connID)
	card := pipe.SCard(ctx, userKey(owner))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("%w: %v", errors.ErrRegistryUnavailable, err)
	}
	return rem.Val() == 1, card.Val(), nil
}

func (r *RedisRegistry) Connections(ctx context.Context, owner domain.UserID) ([]string, error) {
	members, err := r.client.SMembers(ctx, userKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRegistryUnavailable, err)
	}
	return members, nil
}

// OnlineUsers walks the presence key space with SCAN. The cost is bound by the
// number of distinct online users, not the total device count.
func (r *RedisRegistry) OnlineUsers(ctx context.Context) ([]domain.UserID, error) {
	var users []domain.UserID
	iter := r.client.Scan(ctx, 0, userKeyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		if id, ok := parseUserKey(iter.Val()); ok {
			users = append(users, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRegistryUnavailable, err)
	}
	// SCAN may report a key more than once while the keyspace changes.
	return lo.Uniq(users), nil
}

var _ contract.IRegistry = (*RedisRegistry)(nil)
