package refreshtokens

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rt:"

const (
	replaceStatusMissing  int64 = 0
	replaceStatusExpired  int64 = 1
	replaceStatusReplaced int64 = 2
)

// KEYS[1] old record, KEYS[2] new record.
// ARGV: now_ms, new id, client_context, expires_ms.
const replaceScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return {0, ""}
end
local exp = tonumber(redis.call("HGET", KEYS[1], "expires_at") or "0")
if exp <= tonumber(ARGV[1]) then
  redis.call("DEL", KEYS[1])
  return {1, ""}
end
local account = redis.call("HGET", KEYS[1], "account_id")
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[2],
  "id", ARGV[2],
  "account_id", account,
  "client_context", ARGV[3],
  "expires_at", ARGV[4],
  "created_at", ARGV[1])
redis.call("PEXPIREAT", KEYS[2], ARGV[4])
return {2, account}
`

var replaceLua = redis.NewScript(replaceScript)

// RedisRepository keeps each refresh token as a hash under rt:<fingerprint>
// with a key expiry equal to the token expiry, so Redis reaps stale
// records on its own.
type RedisRepository struct {
	rdb redis.UniversalClient
}

func NewRedisRepository(rdb redis.UniversalClient) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func key(fingerprint string) string {
	return keyPrefix + fingerprint
}

func (r *RedisRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}

	k := key(token.Fingerprint)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k,
			"id", token.ID,
			"account_id", token.AccountID,
			"client_context", token.ClientContext,
			"expires_at", token.ExpiresAt.UnixMilli(),
			"created_at", token.CreatedAt.UnixMilli(),
		)
		p.PExpireAt(ctx, k, token.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, fingerprint string) (*models.RefreshToken, error) {
	fields, err := r.rdb.HGetAll(ctx, key(fingerprint)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	expires, err := parseMillis(fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh token record: %w", err)
	}
	created, err := parseMillis(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt refresh token record: %w", err)
	}

	return &models.RefreshToken{
		ID:            fields["id"],
		AccountID:     fields["account_id"],
		Fingerprint:   fingerprint,
		ClientContext: fields["client_context"],
		ExpiresAt:     expires,
		CreatedAt:     created,
	}, nil
}

// Replace runs as a single Lua script, which Redis executes without
// interleaving other commands.
func (r *RedisRepository) Replace(ctx context.Context, oldFingerprint string, next *models.RefreshToken) error {
	if next.ID == "" {
		next.ID = uuid.NewString()
	}

	res, err := replaceLua.Run(ctx, r.rdb,
		[]string{key(oldFingerprint), key(next.Fingerprint)},
		next.CreatedAt.UnixMilli(), next.ID, next.ClientContext, next.ExpiresAt.UnixMilli(),
	).Slice()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("redis error: unexpected replace reply %v", res)
	}

	status, _ := res[0].(int64)
	switch status {
	case replaceStatusReplaced:
		next.AccountID, _ = res[1].(string)
		return nil
	case replaceStatusMissing, replaceStatusExpired:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("redis error: unexpected replace status %d", status)
	}
}

// Delete is idempotent.
func (r *RedisRepository) Delete(ctx context.Context, fingerprint string) error {
	if err := r.rdb.Del(ctx, key(fingerprint)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
