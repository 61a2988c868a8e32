package leaderboard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	keyWins     = "leaderboard:wins"
	keyWinnings = "leaderboard:winnings"
)

// RedisLeaderboard mantém rankings de vitórias e de valor ganho em sorted
// sets, alimentados pelo fluxo de liquidação.
type RedisLeaderboard struct {
	Client *redis.Client
}

func NewRedisLeaderboard(c *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{Client: c}
}

func member(userID uint32) string { return strconv.FormatUint(uint64(userID), 10) }

// RecordWin incrementa o ranking do usuário vencedor.
func (l *RedisLeaderboard) RecordWin(ctx context.Context, userID uint32, payout uint64) error {
	if err := l.Client.ZIncrBy(ctx, keyWins, 1, member(userID)).Err(); err != nil {
		return fmt.Errorf("zincrby wins: %w", err)
	}
	if err := l.Client.ZIncrBy(ctx, keyWinnings, float64(payout), member(userID)).Err(); err != nil {
		return fmt.Errorf("zincrby winnings: %w", err)
	}
	return nil
}

// Entry é uma posição do ranking.
type Entry struct {
	UserID uint32
	Score  float64
}

// TopWinners devolve os n primeiros do ranking de vitórias.
func (l *RedisLeaderboard) TopWinners(ctx context.Context, n int64) ([]Entry, error) {
	zs, err := l.Client.ZRevRangeWithScores(ctx, keyWins, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange wins: %w", err)
	}
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		id, perr := strconv.ParseUint(z.Member.(string), 10, 32)
		if perr != nil {
			continue
		}
		out = append(out, Entry{UserID: uint32(id), Score: z.Score})
	}
	return out, nil
}
