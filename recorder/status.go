package recorder

import "errors"

var (
	ErrCaptureUnavailable = errors.New("capture unavailable")
	ErrTooNoisy           = errors.New("environment too noisy")
	ErrSessionActive      = errors.New("session already active")
	ErrNotRecording       = errors.New("no active session")
)

type State int

const (
	StateIdle State = iota
	StateCalibrating
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCalibrating:
		return "calibrating"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Active reports whether a session owns the microphone.
func (s State) Active() bool {
	return s == StateCalibrating || s == StateRecording
}

// StopReason records which trigger ended a session.
type StopReason int

const (
	ReasonNone StopReason = iota
	ReasonUser
	ReasonSilence
	ReasonMaxDuration
	ReasonTooNoisy
	ReasonCaptureUnavailable
)

func (r StopReason) String() string {
	switch r {
	case ReasonUser:
		return "user"
	case ReasonSilence:
		return "silence"
	case ReasonMaxDuration:
		return "max_duration"
	case ReasonTooNoisy:
		return "too_noisy"
	case ReasonCaptureUnavailable:
		return "capture_unavailable"
	default:
		return "none"
	}
}

// Status is a notification emitted to the observer.
type Status int

const (
	StatusCalibrating Status = iota
	StatusTooNoisy
	StatusRecording
	StatusSilenceDetected
	StatusMaxDurationReached
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusCalibrating:
		return "calibrating"
	case StatusTooNoisy:
		return "too_noisy"
	case StatusRecording:
		return "recording"
	case StatusSilenceDetected:
		return "silence_detected"
	case StatusMaxDurationReached:
		return "max_duration_reached"
	default:
		return "stopped"
	}
}

// Message is the user-facing notification for s.
func (s Status) Message() string {
	switch s {
	case StatusCalibrating:
		return "Don't speak, calibrating the mic"
	case StatusTooNoisy:
		return "Background noise is too much. Move to a quieter place"
	case StatusRecording:
		return "Start speaking"
	case StatusSilenceDetected:
		return "Silence detected"
	case StatusMaxDurationReached:
		return "Max time reached"
	default:
		return "Recording stopped"
	}
}

// Event is delivered to the observer on the loop thread.
type Event struct {
	Status  Status
	Session Session
	Reason  StopReason // set on StatusStopped
	Err     error      // set when capture failed to start or stop
}
