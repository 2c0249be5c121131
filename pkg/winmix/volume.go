package winmix

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// VolumeControl reads and changes the volume and mute state of exactly one audio session.
//
// A VolumeControl is not safe for concurrent writes; callers sharing one between goroutines
// must serialize access themselves.
type VolumeControl struct {
	logger *zap.SugaredLogger
	volume SimpleAudioVolume
}

func newVolumeControl(logger *zap.SugaredLogger, volume SimpleAudioVolume) *VolumeControl {
	return &VolumeControl{
		logger: logger,
		volume: volume,
	}
}

// MasterVolume returns the session's volume level, between 0.0 and 1.0
func (vc *VolumeControl) MasterVolume() (float32, error) {
	if vc.volume == nil {
		return 0, ErrControlUnavailable
	}

	level, err := vc.volume.MasterVolume()
	if err != nil {
		vc.logger.Debugw("Failed to get session volume", "error", err)
		return 0, fmt.Errorf("%w: get master volume: %w", ErrControlUnavailable, err)
	}

	return level, nil
}

// SetMasterVolume changes the session's volume level. Levels outside [0.0, 1.0] are rejected.
// Changing the volume doesn't affect the mute state.
func (vc *VolumeControl) SetMasterVolume(level float32) error {
	if math.IsNaN(float64(level)) || level < 0 || level > 1 {
		return fmt.Errorf("%w: volume level %v outside [0.0, 1.0]", ErrInvalidArgument, level)
	}

	if vc.volume == nil {
		return ErrControlUnavailable
	}

	if err := vc.volume.SetMasterVolume(level); err != nil {
		vc.logger.Debugw("Failed to set session volume", "to", level, "error", err)
		return fmt.Errorf("%w: set master volume: %w", ErrControlUnavailable, err)
	}

	vc.logger.Debugw("Adjusted session volume", "to", fmt.Sprintf("%.2f", level))
	return nil
}

// Mute reports whether the session is muted
func (vc *VolumeControl) Mute() (bool, error) {
	if vc.volume == nil {
		return false, ErrControlUnavailable
	}

	muted, err := vc.volume.Mute()
	if err != nil {
		vc.logger.Debugw("Failed to get session mute state", "error", err)
		return false, fmt.Errorf("%w: get mute: %w", ErrControlUnavailable, err)
	}

	return muted, nil
}

// SetMute mutes or unmutes the session. The volume level is left as it was.
func (vc *VolumeControl) SetMute(mute bool) error {
	if vc.volume == nil {
		return ErrControlUnavailable
	}

	if err := vc.volume.SetMute(mute); err != nil {
		vc.logger.Debugw("Failed to set session mute state", "to", mute, "error", err)
		return fmt.Errorf("%w: set mute: %w", ErrControlUnavailable, err)
	}

	vc.logger.Debugw("Adjusted session mute state", "to", mute)
	return nil
}

// Release drops the underlying OS reference. Any later call fails with ErrControlUnavailable.
func (vc *VolumeControl) Release() {
	if vc.volume == nil {
		return
	}

	vc.volume.Release()
	vc.volume = nil

	vc.logger.Debug("Released volume control")
}
