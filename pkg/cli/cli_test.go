package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/nik9play/winmix/pkg/winmix"
	"github.com/nik9play/winmix/pkg/winmix/winmixtest"
)

type fixture struct {
	app      *app
	provider *winmixtest.Provider
	demo     *winmixtest.Session
	other    *winmixtest.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	demo := winmixtest.NewSession(4321)
	other := winmixtest.NewSession(99)

	provider := winmixtest.NewProvider(winmixtest.NewEndpoint("speakers", demo, other))
	locator := winmixtest.NewLocator(map[uint32]string{
		4321: `C:\Apps\demo.exe`,
		99:   `C:\Program Files\Player\player.exe`,
	})

	a := &app{
		logger: zaptest.NewLogger(t).Sugar(),
		newMixer: func(logger *zap.SugaredLogger, config *winmix.Config) (Mixer, error) {
			return winmix.NewWithProvider(logger, config, provider, locator), nil
		},
		foregroundNames: func() ([]string, error) {
			return []string{"DEMO.EXE", "explorer.exe"}, nil
		},
	}

	return &fixture{app: a, provider: provider, demo: demo, other: other}
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := f.app.rootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()

	if n := f.provider.Outstanding(); n != 0 {
		t.Errorf("%v: %d audio references left outstanding", args, n)
	}
	if n := f.demo.Bound() + f.other.Bound(); n != 0 {
		t.Errorf("%v: %d volume controls left bound", args, n)
	}

	return out.String(), err
}

func TestListTable(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "list", "--lang", "en")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	for _, want := range []string{"PID", "NAME", "demo.exe", "player.exe", "4321", "100%", `C:\Apps\demo.exe`, "speakers"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestListEmpty(t *testing.T) {
	f := newFixture(t)
	f.provider.Endpoints[0].Sessions = nil

	out, err := f.run(t, "list", "--lang", "en")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "No programs are playing audio") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestListJSON(t *testing.T) {
	f := newFixture(t)

	if _, err := f.run(t, "set", "demo", "0.25", "--lang", "en"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	out, err := f.run(t, "list", "-o", "json", "--lang", "en")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	var rows []sessionRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	row := rows[0]
	if row.PID != 4321 || row.Name != "demo.exe" || row.Path != `C:\Apps\demo.exe` || row.Endpoint != "speakers" {
		t.Errorf("unexpected row %+v", row)
	}
	if math.Abs(float64(row.Volume-0.25)) > 0.01 || row.Muted {
		t.Errorf("unexpected state %+v", row)
	}
}

func TestListTOML(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "list", "--output", "toml", "--lang", "en")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}

	var decoded tomlSessions
	if _, err := toml.Decode(out, &decoded); err != nil {
		t.Fatalf("output is not toml: %v\n%s", err, out)
	}

	if len(decoded.Sessions) != 2 || decoded.Sessions[1].PID != 99 {
		t.Errorf("unexpected sessions %+v", decoded.Sessions)
	}
}

func TestListUnknownFormat(t *testing.T) {
	f := newFixture(t)

	if _, err := f.run(t, "list", "-o", "xml", "--lang", "en"); err == nil {
		t.Fatalf("expected error for unknown output format")
	}
}

func TestSetVolume(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "set", "demo.exe", "40%", "--lang", "en")
	if err != nil {
		t.Fatalf("set error = %v", err)
	}

	if !strings.Contains(out, "demo.exe (pid 4321): 40%") {
		t.Errorf("unexpected output %q", out)
	}

	if level, _ := f.demo.State(); math.Abs(float64(level-0.4)) > 0.01 {
		t.Errorf("volume = %v, want 0.4", level)
	}
	if level, _ := f.other.State(); level != 1 {
		t.Errorf("other program's volume changed to %v", level)
	}
}

func TestSetInvalidLevel(t *testing.T) {
	f := newFixture(t)

	for _, level := range []string{"1.5", "2", "150%", "loud"} {
		_, err := f.run(t, "set", "demo", level, "--lang", "en")
		if err == nil {
			t.Errorf("set %s: expected error", level)
			continue
		}

		var levelErr *invalidLevelError
		if !errors.As(err, &levelErr) {
			t.Errorf("set %s: expected invalid level error, got %v", level, err)
		}
	}

	if level, _ := f.demo.State(); level != 1 {
		t.Errorf("rejected levels changed the volume to %v", level)
	}
}

func TestSetInvalidLevelBeforeMatching(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "set", "nope", "1.5", "--lang", "en")

	var levelErr *invalidLevelError
	if !errors.As(err, &levelErr) {
		t.Fatalf("expected invalid level error, got %v", err)
	}
	if !strings.Contains(err.Error(), "1.5") {
		t.Errorf("error doesn't name the level: %v", err)
	}
}

func TestMuteUnmuteToggle(t *testing.T) {
	f := newFixture(t)

	steps := []struct {
		command string
		muted   bool
	}{
		{"mute", true},
		{"mute", true},
		{"toggle", false},
		{"toggle", true},
		{"unmute", false},
		{"unmute", false},
	}

	for _, step := range steps {
		out, err := f.run(t, step.command, "4321", "--lang", "en")
		if err != nil {
			t.Fatalf("%s error = %v", step.command, err)
		}

		if _, muted := f.demo.State(); muted != step.muted {
			t.Errorf("after %s: muted = %v, want %v", step.command, muted, step.muted)
		}
		if strings.Contains(out, "(muted)") != step.muted {
			t.Errorf("after %s: unexpected output %q", step.command, out)
		}
	}

	if level, _ := f.demo.State(); level != 1 {
		t.Errorf("muting changed the volume to %v", level)
	}
}

func TestGetTargets(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		target string
		want   string
	}{
		{"4321", "demo.exe (pid 4321)"},
		{"DEMO", "demo.exe (pid 4321)"},
		{"player.exe", "player.exe (pid 99)"},
		{"current", "demo.exe (pid 4321)"},
	}

	for _, c := range cases {
		out, err := f.run(t, "get", c.target, "--lang", "en")
		if err != nil {
			t.Errorf("get %s error = %v", c.target, err)
			continue
		}

		if !strings.Contains(out, c.want) {
			t.Errorf("get %s = %q, want %q", c.target, out, c.want)
		}
		if c.target == "current" && strings.Contains(out, "player.exe") {
			t.Errorf("get current matched a background program: %q", out)
		}
	}
}

func TestGetNoMatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "get", "nope", "--lang", "en")
	if err == nil || !strings.Contains(err.Error(), "No audio session matches nope") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestGetForegroundUnavailable(t *testing.T) {
	f := newFixture(t)
	f.app.foregroundNames = func() ([]string, error) {
		return nil, errors.New("not implemented")
	}

	if _, err := f.run(t, "get", "current", "--lang", "en"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEndedSession(t *testing.T) {
	f := newFixture(t)
	f.demo.End()

	_, err := f.run(t, "get", "demo", "--lang", "en")
	if err == nil || !strings.Contains(err.Error(), "no longer available") {
		t.Fatalf("unexpected error %v", err)
	}

	out, err := f.run(t, "list", "--lang", "en")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "player.exe") {
		t.Errorf("live sessions missing from list:\n%s", out)
	}
}

func TestNoDevice(t *testing.T) {
	f := newFixture(t)
	f.provider.Endpoints = nil

	_, err := f.run(t, "list", "--lang", "en")
	if err == nil || !strings.Contains(err.Error(), "No active audio output device") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRussianMessages(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "mute", "demo", "--lang", "ru")
	if err != nil {
		t.Fatalf("mute error = %v", err)
	}

	if !strings.Contains(out, "звук выключен") {
		t.Errorf("expected russian output, got %q", out)
	}

	_, err = f.run(t, "get", "nope", "--lang", "ru")
	if err == nil || !strings.Contains(err.Error(), "Нет аудиосессий") {
		t.Fatalf("expected russian error, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input string
		want  float32
		ok    bool
	}{
		{"0", 0, true},
		{"0.5", 0.5, true},
		{"1", 1, true},
		{"40%", 0.4, true},
		{" 100% ", 1, true},
		{"abc", 0, false},
		{"%", 0, false},
		{"1.5", 0, false},
		{"150%", 0, false},
		{"-5%", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, c := range cases {
		got, err := parseLevel(c.input)
		if (err == nil) != c.ok {
			t.Errorf("parseLevel(%q) error = %v", c.input, err)
			continue
		}

		if c.ok && math.Abs(float64(got-c.want)) > 0.0001 {
			t.Errorf("parseLevel(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestVersion(t *testing.T) {
	cases := []struct {
		info BuildInfo
		want string
	}{
		{BuildInfo{}, ""},
		{BuildInfo{GitCommit: "abc123"}, "abc123"},
		{BuildInfo{BuildType: "release", GitCommit: "abc123", VersionTag: "v1.2.0"}, "release-v1.2.0"},
	}

	for _, c := range cases {
		a := &app{info: c.info}
		if got := a.version(); got != c.want {
			t.Errorf("version(%+v) = %q, want %q", c.info, got, c.want)
		}
	}
}
