package store

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_AppendAssignsFields(t *testing.T) {
	s := NewMemoryStore(30.0)
	before := time.Now().UTC()

	r, err := s.Append(context.Background(), "device-1", 21.5, 55.0)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if r.ID != 1 {
		t.Errorf("Expected id 1, got %d", r.ID)
	}
	if r.DeviceID != "device-1" {
		t.Errorf("Expected device-1, got %s", r.DeviceID)
	}
	if r.Temperature != 21.5 || r.Humidity != 55.0 {
		t.Errorf("Values not preserved: %.1f/%.1f", r.Temperature, r.Humidity)
	}
	if r.Timestamp.Before(before) {
		t.Errorf("Timestamp %v before append time %v", r.Timestamp, before)
	}
}

func TestMemoryStore_ReadYourWrites(t *testing.T) {
	s := NewMemoryStore(30.0)

	written, err := s.Append(context.Background(), "device-1", 22.0, 60.0)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Append must be immediately visible to a subsequent read
	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	if len(all) != 1 {
		t.Fatalf("Expected 1 reading, got %d", len(all))
	}
	if all[0].ID != written.ID || all[0].Temperature != 22.0 {
		t.Errorf("Read back a different reading: %+v", all[0])
	}
}

func TestMemoryStore_OrderingAndNoDuplicates(t *testing.T) {
	s := NewMemoryStore(30.0)

	for i := 0; i < 20; i++ {
		if _, err := s.Append(context.Background(), "device-1", float64(i), 50.0); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 20 {
		t.Fatalf("Expected 20 readings, got %d", len(all))
	}

	// Ids strictly increase in insertion order
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Errorf("Ids not strictly increasing: %d after %d", all[i].ID, all[i-1].ID)
		}
	}
}

func TestMemoryStore_ConcurrentAppendsUniqueIds(t *testing.T) {
	s := NewMemoryStore(30.0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Append(context.Background(), "device-1", 20.0, 50.0)
		}()
	}
	wg.Wait()

	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 50 {
		t.Fatalf("Expected 50 readings, got %d", len(all))
	}

	seen := make(map[int64]bool)
	for _, r := range all {
		if seen[r.ID] {
			t.Errorf("Duplicate id %d", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestMemoryStore_ListSinceCutoff(t *testing.T) {
	s := NewMemoryStore(30.0)

	if _, err := s.Append(context.Background(), "device-1", 20.0, 50.0); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Cutoff in the past includes the reading
	recent, err := s.ListSince(context.Background(), time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("Expected 1 reading within cutoff, got %d", len(recent))
	}

	// Cutoff in the future excludes it
	none, err := s.ListSince(context.Background(), time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("ListSince failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected 0 readings past future cutoff, got %d", len(none))
	}
}

func TestMemoryStore_ThresholdDefault(t *testing.T) {
	s := NewMemoryStore(30.0)

	value, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != 30.0 {
		t.Errorf("Expected default threshold 30.0, got %.1f", value)
	}
}

func TestMemoryStore_ThresholdSetGet(t *testing.T) {
	s := NewMemoryStore(30.0)

	set, err := s.Set(context.Background(), 25.5)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if set != 25.5 {
		t.Errorf("Expected 25.5 from Set, got %.1f", set)
	}

	got, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 25.5 {
		t.Errorf("Expected 25.5 from Get, got %.1f", got)
	}
}

func TestMemoryStore_ThresholdRejectsNonFinite(t *testing.T) {
	s := NewMemoryStore(30.0)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := s.Set(context.Background(), v); err == nil {
			t.Errorf("Expected error for non-finite value %v", v)
		}
	}

	// The stored value is untouched after a rejected set
	got, _ := s.Get(context.Background())
	if got != 30.0 {
		t.Errorf("Threshold changed by rejected set: %.1f", got)
	}
}
