package shutdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zarafe/internal/logger"
)

func TestShutdownRunsInReverseOnce(t *testing.T) {
	m := NewManager(logger.Nop())

	var order []string
	m.Register("store", Func(func() { order = append(order, "store") }))
	m.Register("bus", Func(func() { order = append(order, "bus") }))

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, []string{"bus", "store"}, order)
	assert.Error(t, m.Context().Err())

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(logger.Nop())
	m.SetTimeout(20 * time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	ran := false
	m.Register("stuck", Func(func() { <-release }))
	m.Register("first", Func(func() { ran = true }))

	start := time.Now()
	m.Shutdown()
	assert.True(t, ran)
	assert.Less(t, time.Since(start), 2*time.Second)
}
