package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}

	// Capture time before and after the clock call
	before := time.Now()
	now := clock.Now()
	after := time.Now()

	// The clock's time should be between our before/after measurements
	if now.Before(before) {
		t.Errorf("Clock time %v is before measurement time %v", now, before)
	}
	if now.After(after) {
		t.Errorf("Clock time %v is after measurement time %v", now, after)
	}
}

func TestRealClock_Now_Multiple_Calls(t *testing.T) {
	clock := RealClock{}

	first := clock.Now()
	time.Sleep(1 * time.Millisecond) // Small delay to ensure time difference
	second := clock.Now()

	if !second.After(first) {
		t.Errorf("Second call %v should be after first call %v", second, first)
	}
}

func TestMockClock_Now(t *testing.T) {
	fixedTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: fixedTime}

	now := clock.Now()

	if !now.Equal(fixedTime) {
		t.Errorf("Expected %v, got %v", fixedTime, now)
	}
}

func TestMockClock_Now_Consistent(t *testing.T) {
	fixedTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: fixedTime}

	first := clock.Now()
	second := clock.Now()

	if !first.Equal(second) {
		t.Errorf("Mock clock should return consistent time: first=%v, second=%v", first, second)
	}
}

func TestMockClock_Advance(t *testing.T) {
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: initialTime}

	// Test advancing by various durations
	testCases := []struct {
		name     string
		duration time.Duration
		expected time.Time
	}{
		{
			name:     "advance by 1 hour",
			duration: 1 * time.Hour,
			expected: initialTime.Add(1 * time.Hour),
		},
		{
			name:     "advance by 30 minutes more",
			duration: 30 * time.Minute,
			expected: initialTime.Add(1*time.Hour + 30*time.Minute),
		},
		{
			name:     "advance by 1 microsecond",
			duration: 1 * time.Microsecond,
			expected: initialTime.Add(1*time.Hour + 30*time.Minute + 1*time.Microsecond),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clock.Advance(tc.duration)
			now := clock.Now()

			if !now.Equal(tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, now)
			}
		})
	}
}

func TestMockClock_Advance_Negative_Duration(t *testing.T) {
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: initialTime}

	// Advance backwards
	clock.Advance(-1 * time.Hour)
	now := clock.Now()
	expected := initialTime.Add(-1 * time.Hour)

	if !now.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, now)
	}
}

func TestMockClock_Advance_Zero_Duration(t *testing.T) {
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: initialTime}

	// Advance by zero
	clock.Advance(0)
	now := clock.Now()

	if !now.Equal(initialTime) {
		t.Errorf("Expected %v, got %v", initialTime, now)
	}
}

func TestClock_Interface_Compliance(t *testing.T) {
	// Test that both implementations satisfy the Clock interface
	var _ Clock = RealClock{}
	var _ Clock = &MockClock{}
}

func TestMockClock_Simulation(t *testing.T) {
	// Simulate a realistic scenario where we need to test time-dependent behavior
	startTime := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: startTime}

	// Simulate a day's worth of operations
	events := []struct {
		description  string
		advance      time.Duration
		expectedHour int
	}{
		{"Start of day", 0, 9},
		{"Mid-morning", 2 * time.Hour, 11},
		{"Lunch time", 2 * time.Hour, 13},
		{"Afternoon", 3 * time.Hour, 16},
		{"End of day", 2 * time.Hour, 18},
	}

	for _, event := range events {
		t.Run(event.description, func(t *testing.T) {
			if event.advance > 0 {
				clock.Advance(event.advance)
			}

			now := clock.Now()
			if now.Hour() != event.expectedHour {
				t.Errorf("Expected hour %d, got %d (time: %v)", event.expectedHour, now.Hour(), now)
			}
		})
	}
}

func TestSerial(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want uint32
	}{
		{"unix time", time.Unix(1754049600, 0), 1754049600},
		{"epoch maps to one", time.Unix(0, 0), 1},
		{"past 2106 wraps", time.Unix(1<<32+5, 0), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &MockClock{CurrentTime: tt.at}
			if got := Serial(clock); got != tt.want {
				t.Errorf("Serial() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSerial_FollowsAdvance(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Unix(1000, 0)}
	first := Serial(clock)
	clock.Advance(time.Minute)
	if got := Serial(clock); got != first+60 {
		t.Errorf("Serial after advance = %d, want %d", got, first+60)
	}
}

func TestMockClock_Concurrent_Access(t *testing.T) {
	// Test that MockClock can be safely used concurrently for reads
	// Note: This doesn't test concurrent writes (Advance) as that would require synchronization
	initialTime := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := &MockClock{CurrentTime: initialTime}

	done := make(chan bool, 10)

	// Start 10 goroutines that read the time
	for i := 0; i < 10; i++ {
		go func() {
			now := clock.Now()
			if !now.Equal(initialTime) {
				t.Errorf("Expected %v, got %v", initialTime, now)
			}
			done <- true
		}()
	}

	// Wait for all goroutines to complete
	for i := 0; i < 10; i++ {
		<-done
	}
}
