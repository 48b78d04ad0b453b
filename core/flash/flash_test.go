package flash_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shadowsession/core/flash"
	"github.com/dmitrymomot/shadowsession/core/shadow"
)

func newSession(t *testing.T) (*miniredis.Miniredis, *shadow.Session) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sess := shadow.NewSession()
	require.NoError(t, sess.Shadow.Open(sess, client, time.Hour))
	return mr, sess
}

func TestAddAndMessages(t *testing.T) {
	ctx := context.Background()
	_, sess := newSession(t)

	require.NoError(t, flash.Add(ctx, sess, "first"))
	require.NoError(t, flash.AddWithCategory(ctx, sess, flash.CategoryError, "second"))

	msgs, err := flash.Messages(ctx, sess)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, flash.CategoryMessage, msgs[0].Category)
	assert.Equal(t, "first", msgs[0].Message)
	assert.Equal(t, flash.CategoryError, msgs[1].Category)
	assert.Equal(t, "second", msgs[1].Message)
}

func TestMessages_ConsumesQueue(t *testing.T) {
	ctx := context.Background()
	_, sess := newSession(t)

	require.NoError(t, flash.Add(ctx, sess, "once"))

	msgs, err := flash.Messages(ctx, sess)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msgs, err = flash.Messages(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, msgs, "queue is consumed on read")

	n, err := sess.Shadow.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMessages_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	_, sess := newSession(t)

	msgs, err := flash.Messages(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestQueueStaysOutOfCookie(t *testing.T) {
	ctx := context.Background()
	mr, sess := newSession(t)

	require.NoError(t, flash.Add(ctx, sess, "server-side only"))

	data, err := sess.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "server-side only")

	key := sess.Shadow.Key()
	require.NotEmpty(t, key)
	assert.True(t, mr.Exists(key))
}
