package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemoryDedupStoreFirstDeliveryWins(t *testing.T) {
	s := NewMemoryDedupStore()

	first, err := s.MarkProcessed(context.Background(), "m:c")
	if err != nil {
		t.Fatal(err)
	}
	if !first {
		t.Fatal("first delivery reported as duplicate")
	}
	second, err := s.MarkProcessed(context.Background(), "m:c")
	if err != nil {
		t.Fatal(err)
	}
	if second {
		t.Fatal("redelivery reported as first")
	}
}

func TestMemoryDedupStoreKeysAreIndependent(t *testing.T) {
	s := NewMemoryDedupStore()
	s.MarkProcessed(context.Background(), "a:1")
	first, _ := s.MarkProcessed(context.Background(), "b:2")
	if !first {
		t.Fatal("unrelated key reported as duplicate")
	}
}

func TestMemoryDedupStoreConcurrentDeliveries(t *testing.T) {
	s := NewMemoryDedupStore()
	var firsts int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := s.MarkProcessed(context.Background(), "m:c")
			if err != nil {
				t.Error(err)
			}
			if first {
				atomic.AddInt32(&firsts, 1)
			}
		}()
	}
	wg.Wait()
	if firsts != 1 {
		t.Errorf("%d deliveries won the race, want exactly 1", firsts)
	}
}
