package approvals

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestKeyedMutexSerializesPerToken(t *testing.T) {
	locks := newKeyedMutex()
	token := uuid.New()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(token)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if len(locks.locks) != 0 {
		t.Fatalf("lock table holds %d entries after release, want 0", len(locks.locks))
	}
}

func TestKeyedMutexIndependentTokensDoNotBlock(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(uuid.New())
		unlockB()
		close(done)
	}()

	<-done
}
