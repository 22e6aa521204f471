package credit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeCarryover(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(10 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	t.Run("unused allowance is preserved", func(t *testing.T) {
		result := ComputeCarryover(5, 3, 0, nil, now)
		assert.Equal(t, 2, result.Amount)
		assert.NotNil(t, result.Expiry)
		assert.Equal(t, now.Add(GracePeriod), *result.Expiry)
	})

	t.Run("fully used allowance carries nothing", func(t *testing.T) {
		result := ComputeCarryover(5, 5, 0, nil, now)
		assert.Equal(t, 0, result.Amount)
		assert.Nil(t, result.Expiry)
	})

	t.Run("overage never goes negative", func(t *testing.T) {
		result := ComputeCarryover(5, 9, 0, nil, now)
		assert.Equal(t, 0, result.Amount)
		assert.Nil(t, result.Expiry)
	})

	t.Run("unexpired carryover stacks", func(t *testing.T) {
		result := ComputeCarryover(10, 4, 3, &future, now)
		assert.Equal(t, 9, result.Amount)
		assert.Equal(t, now.Add(GracePeriod), *result.Expiry)
	})

	t.Run("expired carryover is forfeited", func(t *testing.T) {
		result := ComputeCarryover(10, 4, 3, &past, now)
		assert.Equal(t, 6, result.Amount)
		assert.Equal(t, now.Add(GracePeriod), *result.Expiry)
	})

	t.Run("expiry restarts only when something carries", func(t *testing.T) {
		result := ComputeCarryover(0, 0, 2, &past, now)
		assert.Equal(t, 0, result.Amount)
		assert.Nil(t, result.Expiry)
	})
}

func TestLaterExpiry(t *testing.T) {
	early := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, LaterExpiry(nil, nil))
	assert.Equal(t, &early, LaterExpiry(&early, nil))
	assert.Equal(t, &late, LaterExpiry(nil, &late))
	assert.Equal(t, &late, LaterExpiry(&early, &late))
	assert.Equal(t, &late, LaterExpiry(&late, &early))
}
