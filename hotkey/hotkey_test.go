package hotkey

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Binding
	}{
		{"ctrl+shift+space", Binding{ModCtrl | ModShift, "space"}},
		{"Ctrl + Alt + R", Binding{ModCtrl | ModAlt, "r"}},
		{"cmd+option+f9", Binding{ModSuper | ModAlt, "f9"}},
		{"win+0", Binding{ModSuper, "0"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "space", "ctrl+", "hyper+a", "ctrl+f13", "ctrl+enter", "ctrl+ab"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) accepted", in)
		}
	}
}

func TestBindingString(t *testing.T) {
	b := MustParse("shift+ctrl+super+space")
	if got := b.String(); got != "ctrl+shift+super+space" {
		t.Errorf("String = %q", got)
	}
}

func TestFakeHotkey(t *testing.T) {
	f := NewFake()
	var hk Hotkey = f
	go f.SimPress()
	<-hk.Keydown()
	<-hk.Keyup()
}
