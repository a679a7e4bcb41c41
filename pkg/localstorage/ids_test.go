package localstorage

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGeneratorIsMonotonicUnderFrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	gen := NewIDGenerator(func() time.Time { return frozen })

	prev := int64(0)
	for i := 0; i < 5; i++ {
		id, err := strconv.ParseInt(gen.Next(), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestIDGeneratorObserve(t *testing.T) {
	gen := NewIDGenerator(func() time.Time { return time.UnixMilli(10) })
	gen.Observe("500")
	gen.Observe("not-a-number")
	assert.Equal(t, "501", gen.Next())
}
