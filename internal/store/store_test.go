package store

import (
	"errors"
	"sync"
	"testing"
)

func TestPutAndGet(t *testing.T) {
	s := New[int]()

	if _, ok := s.Get("missing"); ok {
		t.Error("Expected Get on empty store to return false")
	}

	s.Put("a", 1)
	v, ok := s.Get("a")
	if !ok || v != 1 {
		t.Errorf("Expected (1, true), got (%d, %v)", v, ok)
	}

	s.Put("a", 2)
	if v, _ := s.Get("a"); v != 2 {
		t.Errorf("Expected overwrite to 2, got %d", v)
	}
}

func TestPutIfAbsent(t *testing.T) {
	s := New[string]()

	if !s.PutIfAbsent("k", "first") {
		t.Error("Expected first PutIfAbsent to succeed")
	}

	if s.PutIfAbsent("k", "second") {
		t.Error("Expected second PutIfAbsent to fail")
	}

	if v, _ := s.Get("k"); v != "first" {
		t.Errorf("Expected 'first', got '%s'", v)
	}
}

func TestUpdate(t *testing.T) {
	s := New[int]()
	s.Put("n", 10)

	err := s.Update("n", func(v int) (int, error) {
		return v + 1, nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if v, _ := s.Get("n"); v != 11 {
		t.Errorf("Expected 11, got %d", v)
	}
}

func TestUpdateMissingKey(t *testing.T) {
	s := New[int]()

	err := s.Update("missing", func(v int) (int, error) {
		return v, nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateErrorLeavesValue(t *testing.T) {
	s := New[int]()
	s.Put("n", 5)

	wantErr := errors.New("rejected")
	err := s.Update("n", func(v int) (int, error) {
		return 99, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected rejected error, got %v", err)
	}

	if v, _ := s.Get("n"); v != 5 {
		t.Errorf("Expected value unchanged at 5, got %d", v)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := New[int]()
	s.Put("counter", 0)

	const workers = 50
	const increments = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				s.Update("counter", func(v int) (int, error) {
					return v + 1, nil
				})
			}
		}()
	}
	wg.Wait()

	if v, _ := s.Get("counter"); v != workers*increments {
		t.Errorf("Expected %d, got %d", workers*increments, v)
	}
}

func TestConcurrentPutIfAbsentSingleWinner(t *testing.T) {
	s := New[int]()

	const workers = 32
	wins := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if s.PutIfAbsent("slot", n) {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []int
	for n := range wins {
		winners = append(winners, n)
	}

	if len(winners) != 1 {
		t.Fatalf("Expected exactly 1 winner, got %d", len(winners))
	}

	if v, _ := s.Get("slot"); v != winners[0] {
		t.Errorf("Stored value %d does not match winner %d", v, winners[0])
	}
}

func TestRangeAndDelete(t *testing.T) {
	s := New[int]()
	s.Put("a", 1)
	s.Put("b", 2)
	s.Put("c", 3)

	var keys []string
	s.Range(func(k string, v int) bool {
		keys = append(keys, k)
		return true
	})
	if len(keys) != 3 {
		t.Errorf("Expected 3 keys, got %d", len(keys))
	}

	s.Delete("b")
	if s.Len() != 2 {
		t.Errorf("Expected Len 2 after delete, got %d", s.Len())
	}
	if _, ok := s.Get("b"); ok {
		t.Error("Expected 'b' to be deleted")
	}
}
