package appstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInitialMode(t *testing.T) {
	assert.False(t, New(false).IsReadOnly())
	assert.True(t, New(true).IsReadOnly())
}

func TestSetReadOnly(t *testing.T) {
	state := New(false)

	state.SetReadOnly(true)
	assert.True(t, state.IsReadOnly())

	state.SetReadOnly(false)
	assert.False(t, state.IsReadOnly())
}

func TestConcurrentReaders(t *testing.T) {
	state := New(false)

	var wg sync.WaitGroup
	done := make(chan struct{})

	// Many readers polling while a single writer flips the flag, mirroring
	// request handlers observing the monitor's verdict.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = state.IsReadOnly()
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		state.SetReadOnly(i%2 == 0)
	}
	close(done)
	wg.Wait()

	assert.False(t, state.IsReadOnly())
}
