// Package silence decides when speech has ended by comparing batches of peak
// amplitude against a calibrated noise floor.
package silence

// DefaultBatchSize groups 1.5s of 100ms ticks.
const DefaultBatchSize = 15

type Event int

const (
	EventNone    Event = iota
	EventSilence       // batch peak at or below baseline
)

func (e Event) String() string {
	if e == EventSilence {
		return "silence"
	}
	return "none"
}

// Detector buffers amplitudes across batchSize ticks and reports silence when
// a full batch never rises above the baseline. A batch size of 1 checks every
// tick on its own.
type Detector struct {
	baseline  int
	batchSize int
	batch     []int
	lastPeak  int
	evaluated int
}

func NewDetector(baseline, batchSize int) *Detector {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Detector{
		baseline:  baseline,
		batchSize: batchSize,
		batch:     make([]int, 0, batchSize),
	}
}

// Tick records the reading for tick (1-based). ok is false when no reading was
// available; the tick still counts toward the batch boundary.
func (d *Detector) Tick(tick, amplitude int, ok bool) Event {
	if ok {
		d.batch = append(d.batch, amplitude)
	}
	if tick%d.batchSize != 0 {
		return EventNone
	}
	return d.evaluate()
}

func (d *Detector) evaluate() Event {
	defer func() { d.batch = d.batch[:0] }()
	if len(d.batch) == 0 {
		return EventNone
	}
	d.evaluated++
	d.lastPeak = Peak(d.batch)
	if d.lastPeak <= d.baseline {
		return EventSilence
	}
	return EventNone
}

// Reset drops any partially filled batch.
func (d *Detector) Reset() {
	d.batch = d.batch[:0]
	d.lastPeak = 0
	d.evaluated = 0
}

func (d *Detector) Baseline() int  { return d.baseline }
func (d *Detector) BatchSize() int { return d.batchSize }

// Buffered is the number of readings in the current batch.
func (d *Detector) Buffered() int { return len(d.batch) }

// LastPeak is the peak of the most recently evaluated batch.
func (d *Detector) LastPeak() int { return d.lastPeak }

// Evaluated counts non-empty batches checked since the last Reset.
func (d *Detector) Evaluated() int { return d.evaluated }

// Peak returns the largest amplitude in batch, or 0 if it is empty.
func Peak(batch []int) int {
	p := 0
	for _, a := range batch {
		if a > p {
			p = a
		}
	}
	return p
}

// Silent reports whether a non-empty batch stays at or below baseline.
func Silent(batch []int, baseline int) bool {
	return len(batch) > 0 && Peak(batch) <= baseline
}
