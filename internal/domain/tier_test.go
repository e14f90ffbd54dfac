package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTier_TopTier(t *testing.T) {
	tier := ResolveTier(4000)
	assert.Equal(t, 4000.0, tier.MinShares)
	assert.Equal(t, 0.01, tier.BaseBuffer)
	assert.Equal(t, 1.25, tier.SizeMultiplier)
	assert.Equal(t, 5, tier.MaxResubmits)
	assert.True(t, tier.ChaseFirstRetry)
	assert.Equal(t, 0.01, tier.ResubmitMaxBuffer)
}

func TestResolveTier_BoundaryInclusive(t *testing.T) {
	// 3999.99 cae en el tier de 2000; 4000 exacto ya es el top
	assert.Equal(t, 2000.0, ResolveTier(3999.99).MinShares)
	assert.Equal(t, 4000.0, ResolveTier(4000).MinShares)
	assert.Equal(t, 1000.0, ResolveTier(1999.99).MinShares)
	assert.Equal(t, 2000.0, ResolveTier(2000).MinShares)
}

func TestResolveTier_MidTiers(t *testing.T) {
	mid := ResolveTier(2500)
	assert.Equal(t, 0.01, mid.BaseBuffer)
	assert.Equal(t, 1.0, mid.SizeMultiplier)
	assert.Equal(t, 4, mid.MaxResubmits)
	assert.False(t, mid.ChaseFirstRetry)
	assert.Equal(t, 0.0, mid.ResubmitMaxBuffer)

	// entre 1000 y 2000 ya no hay buffer base
	assert.Equal(t, 0.0, ResolveTier(1500).BaseBuffer)
}

func TestResolveTier_CatchAll(t *testing.T) {
	small := ResolveTier(0.5)
	assert.Equal(t, 0.0, small.MinShares)
	assert.Equal(t, 0.0, small.BaseBuffer)
	assert.Equal(t, 1.0, small.SizeMultiplier)
	assert.Equal(t, 4, small.MaxResubmits)
	assert.False(t, small.ChaseFirstRetry)
}
