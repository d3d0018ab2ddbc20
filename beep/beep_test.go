package beep

import "testing"

func TestToneRender(t *testing.T) {
	single := tones[CueStart].render(sampleRate)
	if want := int(sampleRate * 0.2); len(single) != want {
		t.Errorf("start cue = %d samples, want %d", len(single), want)
	}

	double := tones[CueError].render(sampleRate)
	tick := int(sampleRate * 0.08)
	gap := int(sampleRate * 0.05)
	if len(double) != 2*tick+gap {
		t.Errorf("error cue = %d samples, want %d", len(double), 2*tick+gap)
	}
	for i := tick; i < tick+gap; i++ {
		if double[i] != 0 {
			t.Fatalf("gap sample %d = %d, want 0", i, double[i])
		}
	}
}

func TestGenerateTickDecays(t *testing.T) {
	s := generateTick(8000, 1000, 0.5, 0.5, 40)
	peak := func(part []int16) int16 {
		var p int16
		for _, v := range part {
			p = max(p, v, -v)
		}
		return p
	}
	head, tail := peak(s[:400]), peak(s[len(s)-400:])
	if head <= tail {
		t.Errorf("head peak %d <= tail peak %d", head, tail)
	}
	if head > int16(32767/2)+1 {
		t.Errorf("head peak %d exceeds volume", head)
	}
}

func TestEveryCueHasTone(t *testing.T) {
	for c := CueCalibrate; c <= CueError; c++ {
		if _, ok := tones[c]; !ok {
			t.Errorf("cue %d has no tone", c)
		}
	}
}
