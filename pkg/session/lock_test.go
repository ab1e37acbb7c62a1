package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockerSerializesSameSession(t *testing.T) {
	locker := NewLocker()

	// Without serialization these increments would race; the counter
	// coming out exact proves turns for one session never interleave.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locker.Lock("sess-1")
			defer locker.Unlock("sess-1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestLockerIndependentSessionsDoNotBlock(t *testing.T) {
	locker := NewLocker()

	locker.Lock("sess-a")
	defer locker.Unlock("sess-a")

	acquired := make(chan struct{})
	go func() {
		locker.Lock("sess-b")
		defer locker.Unlock("sess-b")
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("independent session blocked behind unrelated lock")
	}
}

func TestLockerReusesMutexPerSession(t *testing.T) {
	locker := NewLocker()

	locker.Lock("sess-1")

	blocked := make(chan struct{})
	go func() {
		locker.Lock("sess-1")
		defer locker.Unlock("sess-1")
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("second holder acquired the same session lock concurrently")
	case <-time.After(50 * time.Millisecond):
	}

	locker.Unlock("sess-1")

	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired lock after release")
	}
}
