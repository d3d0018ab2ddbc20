package silence

import "testing"

// feed sends amplitudes as consecutive ticks starting at start and returns the
// last event.
func feed(d *Detector, start int, amps ...int) Event {
	var last Event
	for i, a := range amps {
		last = d.Tick(start+i, a, true)
	}
	return last
}

func TestSilentBatch(t *testing.T) {
	batch := []int{500, 800, 300}
	if !Silent(batch, 1000) {
		t.Error("expected silence with baseline 1000")
	}
	if Silent(batch, 700) {
		t.Error("expected no silence with baseline 700")
	}
	if !Silent(batch, 800) {
		t.Error("peak equal to baseline counts as silence")
	}
	if Silent(nil, 1000) {
		t.Error("empty batch is never silent")
	}
}

func TestBatchedDetection(t *testing.T) {
	d := NewDetector(1000, 3)
	if ev := feed(d, 1, 500, 800); ev != EventNone {
		t.Fatalf("event before batch full: %v", ev)
	}
	if ev := d.Tick(3, 300, true); ev != EventSilence {
		t.Fatalf("got %v, want silence", ev)
	}
	if d.LastPeak() != 800 {
		t.Errorf("LastPeak = %d, want 800", d.LastPeak())
	}
	if d.Buffered() != 0 {
		t.Errorf("batch not cleared: %d buffered", d.Buffered())
	}
}

func TestBatchedLoudBatchClearsWithoutSignal(t *testing.T) {
	d := NewDetector(700, 3)
	if ev := feed(d, 1, 500, 800, 300); ev != EventNone {
		t.Fatalf("got %v, want none", ev)
	}
	if d.Buffered() != 0 {
		t.Fatalf("batch not cleared after evaluation")
	}
	// next batch is quiet
	if ev := feed(d, 4, 100, 200, 300); ev != EventSilence {
		t.Fatalf("got %v, want silence on quiet batch", ev)
	}
}

func TestOneLoudSampleKeepsRecording(t *testing.T) {
	d := NewDetector(1000, DefaultBatchSize)
	amps := make([]int, DefaultBatchSize)
	for i := range amps {
		amps[i] = 400
	}
	amps[7] = 4000
	if ev := feed(d, 1, amps...); ev != EventNone {
		t.Fatalf("got %v, want none", ev)
	}
}

func TestPerTickDetection(t *testing.T) {
	d := NewDetector(1000, 1)
	if ev := d.Tick(1, 1500, true); ev != EventNone {
		t.Fatalf("loud tick: got %v", ev)
	}
	if ev := d.Tick(2, 1000, true); ev != EventSilence {
		t.Fatalf("tick at baseline: got %v, want silence", ev)
	}
}

func TestZeroBatchSizeMeansPerTick(t *testing.T) {
	d := NewDetector(1000, 0)
	if d.BatchSize() != 1 {
		t.Fatalf("BatchSize = %d, want 1", d.BatchSize())
	}
}

func TestMissingReadingsKeepBoundary(t *testing.T) {
	d := NewDetector(1000, 3)
	d.Tick(1, 200, true)
	d.Tick(2, 0, false)
	if ev := d.Tick(3, 300, true); ev != EventSilence {
		t.Fatalf("got %v, want silence on short batch", ev)
	}
	if d.Evaluated() != 1 {
		t.Errorf("Evaluated = %d, want 1", d.Evaluated())
	}
}

func TestEmptyBatchNeverSignals(t *testing.T) {
	d := NewDetector(1000, 2)
	d.Tick(1, 0, false)
	if ev := d.Tick(2, 0, false); ev != EventNone {
		t.Fatalf("got %v, want none for empty batch", ev)
	}
	if d.Evaluated() != 0 {
		t.Errorf("Evaluated = %d, want 0", d.Evaluated())
	}
}

func TestReset(t *testing.T) {
	d := NewDetector(1000, 4)
	feed(d, 1, 1, 2)
	d.Reset()
	if d.Buffered() != 0 || d.LastPeak() != 0 {
		t.Fatalf("Reset left state: buffered=%d peak=%d", d.Buffered(), d.LastPeak())
	}
}
