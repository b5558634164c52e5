package retry

import "testing"

func TestRetryPolicy_None(t *testing.T) {
	p := RetryPolicy{Kind: RetryNone}
	cases := []struct {
		failed uint32
		want   bool
	}{{0, true}, {1, false}, {10, false}, {100, false}}
	for _, c := range cases {
		if got := p.ShouldRetry(c.failed); got != c.want {
			t.Fatalf("None.ShouldRetry(%d) = %v, want %v", c.failed, got, c.want)
		}
	}
}

func TestRetryPolicy_MaxAttempts(t *testing.T) {
	cases := []struct {
		attempts uint32
		failed   uint32
		want     bool
	}{
		{0, 0, true}, {0, 1, false}, {0, 10, false}, {0, 100, false},
		{1, 0, true}, {1, 1, true}, {1, 2, false}, {1, 10, false}, {1, 100, false},
		{10, 0, true}, {10, 1, true}, {10, 10, true}, {10, 11, false}, {10, 100, false},
	}
	for _, c := range cases {
		p := RetryPolicy{Kind: RetryMaxAttempts, Attempts: c.attempts}
		if got := p.ShouldRetry(c.failed); got != c.want {
			t.Fatalf("MaxAttempts{%d}.ShouldRetry(%d) = %v, want %v", c.attempts, c.failed, got, c.want)
		}
	}
}

func TestRetryPolicy_Infinite(t *testing.T) {
	p := RetryPolicy{Kind: RetryInfinite}
	for _, failed := range []uint32{0, 1, 10, 100} {
		if !p.ShouldRetry(failed) {
			t.Fatalf("Infinite.ShouldRetry(%d) = false, want true", failed)
		}
	}
}

func TestBackoffPolicy_None(t *testing.T) {
	p := BackoffPolicy{Kind: BackoffNone}
	for _, failed := range []uint32{0, 1, 10, 100} {
		if _, ok := p.ShouldWait(failed); ok {
			t.Fatalf("None.ShouldWait(%d) returned a wait, want none", failed)
		}
	}
}

func TestBackoffPolicy_Fixed(t *testing.T) {
	p := BackoffPolicy{Kind: BackoffFixed, FixedMs: 100}
	if _, ok := p.ShouldWait(0); ok {
		t.Fatalf("Fixed.ShouldWait(0) should not wait")
	}
	for _, failed := range []uint32{1, 10} {
		d, ok := p.ShouldWait(failed)
		if !ok || d.Milliseconds() != 100 {
			t.Fatalf("Fixed.ShouldWait(%d) = %v,%v want 100ms", failed, d, ok)
		}
	}

	p2 := BackoffPolicy{Kind: BackoffFixed, FixedMs: 1123}
	if d, ok := p2.ShouldWait(100); !ok || d.Milliseconds() != 1123 {
		t.Fatalf("Fixed.ShouldWait(100) = %v,%v want 1123ms", d, ok)
	}

	zero := BackoffPolicy{Kind: BackoffFixed, FixedMs: 0}
	for _, failed := range []uint32{0, 1, 10} {
		if _, ok := zero.ShouldWait(failed); ok {
			t.Fatalf("zero-ms Fixed.ShouldWait(%d) should not wait", failed)
		}
	}
}

func TestBackoffPolicy_Variable(t *testing.T) {
	empty := BackoffPolicy{Kind: BackoffVariable, VariableMs: []uint32{}}
	for _, failed := range []uint32{0, 1, 200} {
		if _, ok := empty.ShouldWait(failed); ok {
			t.Fatalf("empty Variable.ShouldWait(%d) should not wait", failed)
		}
	}

	zero := BackoffPolicy{Kind: BackoffVariable, VariableMs: []uint32{0}}
	for _, failed := range []uint32{0, 1, 100} {
		if _, ok := zero.ShouldWait(failed); ok {
			t.Fatalf("zero Variable.ShouldWait(%d) should not wait", failed)
		}
	}

	single := BackoffPolicy{Kind: BackoffVariable, VariableMs: []uint32{100}}
	if _, ok := single.ShouldWait(0); ok {
		t.Fatalf("Variable.ShouldWait(0) should not wait")
	}
	for _, failed := range []uint32{1, 2, 10, 100} {
		d, ok := single.ShouldWait(failed)
		if !ok || d.Milliseconds() != 100 {
			t.Fatalf("single Variable.ShouldWait(%d) = %v,%v want 100ms (saturating)", failed, d, ok)
		}
	}

	multi := BackoffPolicy{Kind: BackoffVariable, VariableMs: []uint32{111, 222, 0, 444}}
	if _, ok := multi.ShouldWait(0); ok {
		t.Fatalf("multi Variable.ShouldWait(0) should not wait")
	}
	check := func(failed uint32, wantMs int64) {
		d, ok := multi.ShouldWait(failed)
		if wantMs == 0 {
			if ok {
				t.Fatalf("multi Variable.ShouldWait(%d) should not wait", failed)
			}
			return
		}
		if !ok || d.Milliseconds() != wantMs {
			t.Fatalf("multi Variable.ShouldWait(%d) = %v,%v want %dms", failed, d, ok, wantMs)
		}
	}
	check(1, 111)
	check(2, 222)
	check(3, 0)
	check(4, 444)
	check(5, 444)
	check(100000, 444)
}

func TestStrategy_Next(t *testing.T) {
	s := Strategy{
		RetryPolicy:   RetryPolicy{Kind: RetryMaxAttempts, Attempts: 1},
		BackoffPolicy: BackoffPolicy{Kind: BackoffFixed, FixedMs: 34},
	}

	retry, wait := s.Next(0)
	if !retry || wait != 0 {
		t.Fatalf("Next(0) = %v,%v want true,0", retry, wait)
	}

	retry, wait = s.Next(1)
	if !retry || wait.Milliseconds() != 34 {
		t.Fatalf("Next(1) = %v,%v want true,34ms", retry, wait)
	}

	retry, wait = s.Next(2)
	if retry || wait.Milliseconds() != 34 {
		t.Fatalf("Next(2) = %v,%v want false,34ms", retry, wait)
	}
}
