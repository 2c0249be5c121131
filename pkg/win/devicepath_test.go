package win

import "testing"

func TestTranslateDevicePath(t *testing.T) {
	devices := map[string]string{
		`\Device\HarddiskVolume1`:  "C:",
		`\Device\HarddiskVolume10`: "D:",
	}

	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{`\Device\HarddiskVolume1\Apps\demo.exe`, `C:\Apps\demo.exe`, true},
		{`\Device\HarddiskVolume10\Games\game.exe`, `D:\Games\game.exe`, true},
		{`\device\harddiskvolume1\apps\demo.exe`, `C:\apps\demo.exe`, true},
		{`\Device\HarddiskVolume1`, `C:\`, true},
		{`\Device\Mup\server\share\demo.exe`, `\\server\share\demo.exe`, true},
		{`C:\Apps\demo.exe`, `C:\Apps\demo.exe`, true},
		{`\Device\HarddiskVolume7\demo.exe`, `\Device\HarddiskVolume7\demo.exe`, false},
	}

	for _, c := range cases {
		got, ok := TranslateDevicePath(c.path, devices)
		if got != c.want || ok != c.ok {
			t.Errorf("TranslateDevicePath(%q) = (%q, %v), want (%q, %v)", c.path, got, ok, c.want, c.ok)
		}
	}
}

func TestIsDevicePath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{`\Device\HarddiskVolume3\x.exe`, true},
		{`\DEVICE\Mup\srv\x.exe`, true},
		{`C:\Device\x.exe`, false},
		{`\Dev`, false},
		{"", false},
	}

	for _, c := range cases {
		if got := IsDevicePath(c.path); got != c.want {
			t.Errorf("IsDevicePath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
