package alerting

import (
	"context"
	"testing"
	"time"

	"telemetry-service/internal/models"
	"telemetry-service/internal/store"
)

func testReading(temp float64) models.Reading {
	return models.Reading{
		ID:          1,
		DeviceID:    "device-1",
		Timestamp:   time.Now().UTC(),
		Temperature: temp,
		Humidity:    50,
	}
}

func TestAlerter_AboveThresholdEmits(t *testing.T) {
	s := store.NewMemoryStore(30.0)
	a := NewAlerter(s, nil)

	emitted, err := a.Evaluate(context.Background(), testReading(31.0))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !emitted {
		t.Error("Expected alert for 31.0 with threshold 30.0")
	}
}

func TestAlerter_AtThresholdDoesNotEmit(t *testing.T) {
	s := store.NewMemoryStore(30.0)
	a := NewAlerter(s, nil)

	// Equal to the threshold is not a breach
	emitted, err := a.Evaluate(context.Background(), testReading(30.0))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if emitted {
		t.Error("Unexpected alert for 30.0 with threshold 30.0")
	}
}

func TestAlerter_BelowThresholdDoesNotEmit(t *testing.T) {
	s := store.NewMemoryStore(30.0)
	a := NewAlerter(s, nil)

	emitted, err := a.Evaluate(context.Background(), testReading(12.3))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if emitted {
		t.Error("Unexpected alert for 12.3 with threshold 30.0")
	}
}

func TestAlerter_UsesCurrentThreshold(t *testing.T) {
	s := store.NewMemoryStore(30.0)
	a := NewAlerter(s, nil)

	if _, err := s.Set(context.Background(), 25.5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// 26.0 breaches the lowered threshold
	emitted, err := a.Evaluate(context.Background(), testReading(26.0))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !emitted {
		t.Error("Expected alert for 26.0 with threshold 25.5")
	}
}
