package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(100); got != 10*time.Millisecond {
		t.Fatalf("100Hz period: got %v", got)
	}
	if got := PeriodFromHz(0); got != time.Second {
		t.Fatalf("0Hz should coerce to 1Hz, got %v", got)
	}
}

func TestBitsAt(t *testing.T) {
	// 8 bits at 6.4MHz is one WS281x bit time.
	if got := BitsAt(8, 6_400_000); got != 1250*time.Nanosecond {
		t.Fatalf("got %v", got)
	}
	if got := BitsAt(3, 1_000_000_000); got != 3 {
		t.Fatalf("got %v", got)
	}
	if BitsAt(10, 0) != 0 {
		t.Fatal("zero rate should yield 0")
	}
}
