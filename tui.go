package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quietrec/recorder"
)

// TUI message types
type StatusMsg struct{ Event recorder.Event }
type RecordingTickMsg struct{ Info recorder.TickInfo }
type AudioLevelMsg struct{ Level float64 }
type SavedMsg struct {
	Path     string
	Reason   recorder.StopReason
	Recorded time.Duration
	Copied   bool
}
type DeviceLineMsg struct{ Text string } // Microphone device name
type tickMsg time.Time

type tuiModel struct {
	state      recorder.State
	status     recorder.Status
	message    string
	baseline   int
	elapsed    time.Duration
	amplitude  int
	batchPeak  int
	audioLevel float64
	frame      int
	width      int
	deviceLine string
	hotkey     string
	saved      []SavedMsg
	errText    string

	onToggle func()
	onPlay   func()
}

const maxSavedShown = 5

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	styleRec     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleCal     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleMessage = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpKey = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleMeterOn = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleMeterHi = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleCopied  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func NewTUIProgram(hotkeyLabel string, onToggle, onPlay func()) *tea.Program {
	m := tuiModel{hotkey: hotkeyLabel, onToggle: onToggle, onPlay: onPlay}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", " ":
			if m.onToggle != nil {
				m.onToggle()
			}
		case "p":
			if m.onPlay != nil && !m.state.Active() {
				m.onPlay()
			}
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		ev := msg.Event
		m.status = ev.Status
		m.message = ev.Status.Message()
		m.baseline = ev.Session.Baseline
		m.errText = ""
		switch ev.Status {
		case recorder.StatusCalibrating:
			m.state = recorder.StateCalibrating
			m.elapsed = 0
			m.batchPeak = 0
		case recorder.StatusRecording:
			m.state = recorder.StateRecording
		case recorder.StatusStopped:
			m.state = recorder.StateStopped
			m.audioLevel = 0
			if ev.Err != nil {
				m.errText = ev.Err.Error()
			}
		}

	case RecordingTickMsg:
		m.elapsed = msg.Info.Elapsed
		m.amplitude = msg.Info.Amplitude
		if msg.Info.Checked {
			m.batchPeak = msg.Info.BatchPeak
		}

	case AudioLevelMsg:
		if m.state.Active() {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case SavedMsg:
		m.saved = append(m.saved, msg)
		if len(m.saved) > maxSavedShown {
			m.saved = m.saved[len(m.saved)-maxSavedShown:]
		}

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var lines []string
	switch m.state {
	case recorder.StateCalibrating:
		dots := strings.Repeat(".", m.frame/8%4)
		lines = append(lines, styleCal.Render("◌ CALIBRATING"+dots))
	case recorder.StateRecording:
		lines = append(lines, styleRec.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds())))
	default:
		lines = append(lines, styleIdle.Render("○ STANDBY"))
	}

	if m.message != "" {
		style := styleMessage
		if m.status == recorder.StatusTooNoisy {
			style = styleWarn
		}
		lines = append(lines, style.Render(m.message))
	}
	if m.errText != "" {
		lines = append(lines, styleWarn.Render("error: "+m.errText))
	}

	meterWidth := min(max(m.width-12, 10), 40)
	lines = append(lines, "", "level "+renderMeter(m.audioLevel, meterWidth))
	if m.baseline > 0 {
		lines = append(lines, styleDim.Render(fmt.Sprintf("noise floor %d  peak %d  last batch %d", m.baseline, m.amplitude, m.batchPeak)))
	}

	if m.deviceLine != "" {
		lines = append(lines, styleDim.Render(m.deviceLine))
	}

	if len(m.saved) > 0 {
		lines = append(lines, "", styleDim.Render("Recent recordings"))
		for i := len(m.saved) - 1; i >= 0; i-- {
			s := m.saved[i]
			line := fmt.Sprintf("  %s  %4.1fs  %s", filepath.Base(s.Path), s.Recorded.Seconds(), s.Reason)
			line = styleDim.Render(line)
			if s.Copied {
				line += " " + styleCopied.Render("[✓ copied]")
			}
			lines = append(lines, line)
		}
	}

	lines = append(lines, "",
		styleHelpKey.Render(m.hotkey)+styleHelp.Render(" or ")+styleHelpKey.Render("r")+styleHelp.Render(" to record, ")+
			styleHelpKey.Render("p")+styleHelp.Render(" to play last, ")+styleHelpKey.Render("q")+styleHelp.Render(" to quit"),
		styleHelp.Render("quietrec "+version),
	)
	return strings.Join(lines, "\n")
}

// renderMeter draws level (0..1) as a bar. The top quarter is drawn red.
func renderMeter(level float64, width int) string {
	// Speech RMS rarely exceeds 0.3 of full scale.
	filled := min(int(level/0.3*float64(width)), width)
	hot := width * 3 / 4
	var b strings.Builder
	for i := range width {
		switch {
		case i >= filled:
			b.WriteString(styleIdle.Render("·"))
		case i >= hot:
			b.WriteString(styleMeterHi.Render("█"))
		default:
			b.WriteString(styleMeterOn.Render("█"))
		}
	}
	return b.String()
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards session events to the running TUI.
type tuiSink struct{}

func (tuiSink) Status(ev recorder.Event)  { tuiSend(StatusMsg{Event: ev}) }
func (tuiSink) Tick(ti recorder.TickInfo) { tuiSend(RecordingTickMsg{Info: ti}) }
func (tuiSink) Level(level float64)       { tuiSend(AudioLevelMsg{Level: level}) }

func (tuiSink) Saved(path string, reason recorder.StopReason, recorded time.Duration, copied bool) {
	tuiSend(SavedMsg{Path: path, Reason: reason, Recorded: recorded, Copied: copied})
}
