package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisPublisher_Publish(t *testing.T) {
	fr := &fakeRedis{}
	p := NewRedisPublisher(fr)
	p.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	require.NoError(t, p.Publish(context.Background(), Event{Kind: KindIntakeSaved, UserID: 9}))
	assert.Equal(t, Channel, fr.channel)

	var got Event
	require.NoError(t, json.Unmarshal(fr.payload, &got))
	assert.Equal(t, KindIntakeSaved, got.Kind)
	assert.Equal(t, uint(9), got.UserID)
	assert.Equal(t, time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC), got.At)
}

func TestRedisPublisher_Error(t *testing.T) {
	p := NewRedisPublisher(&fakeRedis{err: errors.New("down")})
	err := p.Publish(context.Background(), Event{Kind: KindSheetFailed})
	assert.ErrorContains(t, err, "admin_notify")
}
