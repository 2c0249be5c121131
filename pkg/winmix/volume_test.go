package winmix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/nik9play/winmix/pkg/winmix"
	"github.com/nik9play/winmix/pkg/winmix/winmixtest"
)

func singleVolume(t *testing.T) (*winmix.VolumeControl, *winmixtest.Session) {
	t.Helper()

	session := winmixtest.NewSession(4321)
	provider := winmixtest.NewProvider(winmixtest.NewEndpoint("speakers", session))
	wm, _ := newTestMix(t, nil, provider, map[uint32]string{4321: `C:\Apps\demo.exe`})

	sessions := enumerate(t, wm)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	return sessions[0].Volume, session
}

func TestVolumeRoundTrip(t *testing.T) {
	volume, _ := singleVolume(t)

	for _, level := range []float32{0, 0.25, 0.5, 1} {
		if err := volume.SetMasterVolume(level); err != nil {
			t.Fatalf("SetMasterVolume(%v) error = %v", level, err)
		}

		got, err := volume.MasterVolume()
		if err != nil {
			t.Fatalf("MasterVolume() error = %v", err)
		}
		if math.Abs(float64(got-level)) > levelTolerance {
			t.Errorf("MasterVolume() = %v after setting %v", got, level)
		}
	}
}

func TestVolumeOutOfRange(t *testing.T) {
	volume, session := singleVolume(t)

	if err := volume.SetMasterVolume(0.4); err != nil {
		t.Fatalf("SetMasterVolume(0.4) error = %v", err)
	}

	for _, level := range []float32{-0.1, 1.1, float32(math.NaN()), float32(math.Inf(1))} {
		if err := volume.SetMasterVolume(level); !errors.Is(err, winmix.ErrInvalidArgument) {
			t.Errorf("SetMasterVolume(%v): expected ErrInvalidArgument, got %v", level, err)
		}
	}

	if level, _ := session.State(); math.Abs(float64(level-0.4)) > levelTolerance {
		t.Errorf("rejected levels changed the volume to %v", level)
	}
}

func TestVolumeBoundaries(t *testing.T) {
	volume, _ := singleVolume(t)

	for _, level := range []float32{0, 1} {
		if err := volume.SetMasterVolume(level); err != nil {
			t.Errorf("SetMasterVolume(%v) error = %v", level, err)
		}
	}
}

func TestMuteIdempotent(t *testing.T) {
	volume, _ := singleVolume(t)

	for _, mute := range []bool{true, true, false, false} {
		if err := volume.SetMute(mute); err != nil {
			t.Fatalf("SetMute(%v) error = %v", mute, err)
		}

		got, err := volume.Mute()
		if err != nil {
			t.Fatalf("Mute() error = %v", err)
		}
		if got != mute {
			t.Errorf("Mute() = %v, want %v", got, mute)
		}
	}
}

func TestMuteKeepsVolume(t *testing.T) {
	volume, _ := singleVolume(t)

	if err := volume.SetMasterVolume(0.6); err != nil {
		t.Fatalf("SetMasterVolume error = %v", err)
	}
	if err := volume.SetMute(true); err != nil {
		t.Fatalf("SetMute error = %v", err)
	}

	level, err := volume.MasterVolume()
	if err != nil {
		t.Fatalf("MasterVolume error = %v", err)
	}
	if math.Abs(float64(level-0.6)) > levelTolerance {
		t.Errorf("muting changed the volume to %v", level)
	}

	if err := volume.SetMasterVolume(0.2); err != nil {
		t.Fatalf("SetMasterVolume error = %v", err)
	}

	muted, err := volume.Mute()
	if err != nil {
		t.Fatalf("Mute error = %v", err)
	}
	if !muted {
		t.Errorf("changing the volume unmuted the session")
	}
}

func TestVolumeReleased(t *testing.T) {
	volume, session := singleVolume(t)

	volume.Release()
	volume.Release()

	if session.Bound() != 0 {
		t.Errorf("expected control released, %d bound", session.Bound())
	}

	if _, err := volume.MasterVolume(); !errors.Is(err, winmix.ErrControlUnavailable) {
		t.Errorf("MasterVolume: expected ErrControlUnavailable, got %v", err)
	}
	if err := volume.SetMasterVolume(0.5); !errors.Is(err, winmix.ErrControlUnavailable) {
		t.Errorf("SetMasterVolume: expected ErrControlUnavailable, got %v", err)
	}
	if _, err := volume.Mute(); !errors.Is(err, winmix.ErrControlUnavailable) {
		t.Errorf("Mute: expected ErrControlUnavailable, got %v", err)
	}
	if err := volume.SetMute(false); !errors.Is(err, winmix.ErrControlUnavailable) {
		t.Errorf("SetMute: expected ErrControlUnavailable, got %v", err)
	}
}
