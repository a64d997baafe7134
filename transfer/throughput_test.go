package transfer

import (
	"testing"
	"time"
)

type mockSource struct {
	n uint64
}

func (m *mockSource) NbBytes() uint64 {
	return m.n
}

func TestThroughputAverage(t *testing.T) {
	s := &mockSource{}
	th := NewThroughput(nil, s).(*throughput)

	if v := th.sampleAverage(time.Unix(0, 0)); v != 0 {
		t.Errorf("invalid average %v", v)
	}

	s.n = 1000
	if v := th.sampleAverage(time.Unix(10, 0)); v != 0 {
		t.Errorf("invalid average %v", v)
	}

	s.n = 2000
	if v := th.sampleAverage(time.Unix(10, 0)); v != 0 {
		t.Errorf("invalid average %v", v)
	} else if v := th.sampleAverage(time.Unix(20, 0)); v != 1000.0/10.0 {
		t.Errorf("invalid average %v", v)
	}
}

func TestThroughputWindowSample(t *testing.T) {
	s := &mockSource{}
	th := NewThroughput(nil, s).(*throughput)

	th.doSample(time.Unix(0, 0)) // nbBytes == 0, no-op

	s.n = 524288
	th.doSample(time.Unix(1, 0)) // first non-zero sample initializes windows

	s.n += 524288 * 10
	th.doSample(time.Unix(11, 0)) // 10s elapsed: w10s should now report a rate

	if th.w10s.bps != 524288.0 {
		t.Errorf("w10s.bps = %v, want %v", th.w10s.bps, 524288.0)
	}
}

func TestThroughputPanicsBeforeStart(t *testing.T) {
	th := NewThroughput(nil, &mockSource{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading a rate before Start")
		}
	}()
	th.Bps10s()
}

func TestThroughputCloseStopsSampling(t *testing.T) {
	th := NewThroughput(nil, &mockSource{}).(*throughput)
	th.started = true

	if err := th.Close(); err != nil {
		t.Fatalf("Close: unexpected error: %v", err)
	}
	if err := th.sample(); err != errThroughputClosed {
		t.Fatalf("sample after Close = %v, want errThroughputClosed", err)
	}
}
