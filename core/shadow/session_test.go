package shadow_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shadowsession/core/shadow"
)

func cookiePayload(t *testing.T, sess *shadow.Session) map[string]any {
	t.Helper()

	data, err := sess.MarshalJSON()
	require.NoError(t, err)

	var values map[string]any
	require.NoError(t, json.Unmarshal(data, &values))
	return values
}

func TestRouting_CookieSideField(t *testing.T) {
	ctx := context.Background()
	mr, sess := newTestSession(t, time.Hour)

	require.NoError(t, sess.Set(ctx, "theme", "dark"))

	got, err := sess.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
	assert.True(t, sess.IsModified())

	assert.Empty(t, mr.Keys(), "ordinary fields never touch the store")
	assert.Contains(t, cookiePayload(t, sess), "theme")
}

func TestRouting_ForcedShadowField(t *testing.T) {
	ctx := context.Background()
	mr, sess := newTestSession(t, time.Hour)

	require.NoError(t, sess.Set(ctx, "_flashes", []string{"hello"}))

	got, err := sess.Get(ctx, "_flashes")
	require.NoError(t, err)
	assert.Equal(t, []any{"hello"}, got)

	key := sess.Shadow.Key()
	require.NotEmpty(t, key)
	assert.True(t, mr.Exists(key), "forced fields round-trip through the store")

	payload := cookiePayload(t, sess)
	assert.NotContains(t, payload, "_flashes", "forced fields never reach the cookie payload")
	assert.Contains(t, payload, shadow.KeyField)
}

func TestRouting_CustomForcedFields(t *testing.T) {
	ctx := context.Background()
	mr, sess := newTestSession(t, time.Hour, shadow.WithForcedShadowFields("cart"))

	require.NoError(t, sess.Set(ctx, "cart", []string{"sku-1"}))
	require.NoError(t, sess.Set(ctx, "_flashes", "now cookie-side"))

	key := sess.Shadow.Key()
	require.NotEmpty(t, key)
	assert.True(t, mr.Exists(key))

	payload := cookiePayload(t, sess)
	assert.NotContains(t, payload, "cart")
	assert.Contains(t, payload, "_flashes", "replacing the forced set moves _flashes back to the cookie")
}

func TestSession_PopAndDelete(t *testing.T) {
	ctx := context.Background()
	_, sess := newTestSession(t, time.Hour)

	require.NoError(t, sess.Set(ctx, "a", 1))
	require.NoError(t, sess.Set(ctx, "_flashes", "note"))

	popped, err := sess.Pop(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, popped)

	_, err = sess.Pop(ctx, "a")
	assert.ErrorIs(t, err, shadow.ErrFieldNotFound)

	popped, err = sess.Pop(ctx, "_flashes")
	require.NoError(t, err)
	assert.Equal(t, "note", popped)

	n, err := sess.Shadow.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, sess.Set(ctx, "b", 2))
	require.NoError(t, sess.Delete(ctx, "b"))
	has, err := sess.Has(ctx, "b")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSession_Len(t *testing.T) {
	ctx := context.Background()
	_, sess := newTestSession(t, time.Hour)

	assert.Zero(t, sess.Len())

	require.NoError(t, sess.Set(ctx, "a", 1))
	assert.Equal(t, 1, sess.Len())

	// Shadow access adds the carried key to the cookie side.
	require.NoError(t, sess.Shadow.Set(ctx, "b", 2))
	assert.Equal(t, 2, sess.Len())
}

func TestSession_PermanentFlag(t *testing.T) {
	sess := shadow.NewSession()

	assert.False(t, sess.IsPermanent())
	assert.False(t, sess.IsModified())

	sess.SetPermanent(false)
	assert.False(t, sess.IsModified(), "no-op change leaves the modified flag alone")

	sess.SetPermanent(true)
	assert.True(t, sess.IsPermanent())
	assert.True(t, sess.IsModified())
}

func TestSession_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, sess := newTestSession(t, time.Hour)

	require.NoError(t, sess.Set(ctx, "lang", "en"))
	data, err := sess.MarshalJSON()
	require.NoError(t, err)

	restored := shadow.NewSession()
	require.NoError(t, restored.UnmarshalJSON(data))

	got, err := restored.Get(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "en", got)
	assert.False(t, restored.IsModified(), "decoding is not a modification")
}
