package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyIsNamespaced(t *testing.T) {
	assert.Equal(t, "storefront:catalog:summary", cacheKey("catalog:summary"))
}

func TestJSONRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires Redis (set REDIS_TEST_ADDR)")
	}

	client, err := NewClient(addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	key := "test:" + time.Now().Format(time.RFC3339Nano)
	defer client.Delete(ctx, key)

	var out []string
	hit, err := client.GetJSON(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, client.SetJSON(ctx, key, []string{"a", "b"}, time.Minute))

	hit, err = client.GetJSON(ctx, key, &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, out)
}
