package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = 4

	var counter int64
	n := 1000

	err := For(n, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
}

func TestFor_WritesByIndex(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}
	out := make([]int, 17)

	err := For(len(out), func(i int) error {
		out[i] = i * i
		return nil
	}, cfg)

	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	err := For(5, func(i int) error {
		order = append(order, i)
		return nil
	}, Sequential())

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_LowestIndexErrorWins(t *testing.T) {
	errBoom := errors.New("boom")
	for _, cfg := range []Config{Sequential(), {Enabled: true, NumWorkers: 8, MinChunkSize: 1}} {
		var ran int64
		err := For(32, func(i int) error {
			atomic.AddInt64(&ran, 1)
			if i == 7 || i == 20 {
				return fmt.Errorf("item %d: %w", i, errBoom)
			}
			return nil
		}, cfg)

		require.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "item 7")
		assert.Equal(t, int64(32), ran, "every item runs")
	}
}

func TestFor_Empty(t *testing.T) {
	called := false
	err := For(0, func(_ int) error {
		called = true
		return nil
	}, DefaultConfig())

	require.NoError(t, err)
	assert.False(t, called)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	data := make([]float64, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = For(len(data), func(j int) error {
			data[j] = float64(j) * 2.0
			return nil
		}, cfg)
	}
}
