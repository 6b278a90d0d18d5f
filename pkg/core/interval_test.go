package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestInterval_Surrounds(t *testing.T) {
	i := NewInterval(0, 1)

	tests := []struct {
		x        float64
		expected bool
	}{
		{-0.5, false},
		{0, false},
		{0.5, true},
		{1, false},
		{2, false},
	}

	for _, tt := range tests {
		if got := i.Surrounds(tt.x); got != tt.expected {
			t.Errorf("Surrounds(%f) = %t, expected %t", tt.x, got, tt.expected)
		}
		inside := tt.x >= 0 && tt.x <= 1
		if got := i.Contains(tt.x); got != inside {
			t.Errorf("Contains(%f) = %t, expected %t", tt.x, got, inside)
		}
	}
}

func TestInterval_Clamp(t *testing.T) {
	i := NewInterval(0, 0.999)

	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"below", -3, 0},
		{"inside", 0.5, 0.5},
		{"at max", 0.999, 0.999},
		{"above", 1.5, 0.999},
		{"positive infinity", math.Inf(1), 0.999},
		{"negative infinity", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := i.Clamp(tt.x); got != tt.expected {
				t.Errorf("Clamp(%f) = %f, expected %f", tt.x, got, tt.expected)
			}
		})
	}
}

func TestInterval_ClampIdempotent(t *testing.T) {
	i := NewInterval(-2, 3)
	random := rand.New(rand.NewSource(42))
	for n := 0; n < 1000; n++ {
		x := (random.Float64() - 0.5) * 20
		once := i.Clamp(x)
		if twice := i.Clamp(once); twice != once {
			t.Fatalf("Clamp not idempotent for %f: %f then %f", x, once, twice)
		}
	}
}

func TestInterval_Constants(t *testing.T) {
	if EmptyInterval.Contains(0) || EmptyInterval.Surrounds(0) {
		t.Error("Empty interval should contain nothing")
	}
	if EmptyInterval.Size() >= 0 {
		t.Errorf("Empty interval size should be negative, got %f", EmptyInterval.Size())
	}
	for _, x := range []float64{-1e300, 0, 1e300} {
		if !UniverseInterval.Surrounds(x) {
			t.Errorf("Universe interval should surround %g", x)
		}
	}
}
