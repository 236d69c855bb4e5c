package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// streamMaxLen is the approximate MAXLEN applied on every XADD.
const streamMaxLen = 10000

// DecisionStream appends risk decisions to a Redis stream for downstream
// consumers.
type DecisionStream struct {
	rdb *redis.Client
}

// NewDecisionStream creates a DecisionStream backed by the given Client.
func NewDecisionStream(c *Client) *DecisionStream {
	return &DecisionStream{rdb: c.Underlying()}
}

// Append adds payload to stream under the field "payload", trimming the
// stream to roughly streamMaxLen entries.
func (ds *DecisionStream) Append(ctx context.Context, stream string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"payload": payload,
		},
	}
	if err := ds.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

var _ domain.DecisionStream = (*DecisionStream)(nil)
