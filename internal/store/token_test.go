package store

import (
	"sync"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	if got := m.Token(); got != "" {
		t.Fatalf("fresh store returned %q", got)
	}
	m.SetToken("tok-1")
	if got := m.Token(); got != "tok-1" {
		t.Fatalf("Token = %q, want tok-1", got)
	}
	m.Clear()
	if got := m.Token(); got != "" {
		t.Fatalf("Token after Clear = %q, want empty", got)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.SetToken("tok")
			m.Clear()
		}()
		go func() {
			defer wg.Done()
			_ = m.Token()
		}()
	}
	wg.Wait()
}
