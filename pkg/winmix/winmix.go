// Package winmix exposes per-program volume control: it finds every running program that
// currently plays audio and hands out a volume and mute control bound to that program's
// audio session alone.
package winmix

import (
	"fmt"
	"strings"

	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

// WinMix enumerates audio sessions. It holds no per-enumeration state, so Enumerate
// can be called from multiple goroutines at once.
type WinMix struct {
	logger         *zap.SugaredLogger
	endpointLogger *zap.SugaredLogger
	resolverLogger *zap.SugaredLogger
	sessionLogger  *zap.SugaredLogger

	config   Config
	exclude  []string
	provider AudioProvider
	locator  ProcessLocator
}

// New creates a WinMix instance backed by the operating system's audio service
func New(logger *zap.SugaredLogger, config *Config) (*WinMix, error) {
	provider, err := newAudioProvider(logger)
	if err != nil {
		logger.Errorw("Failed to create audio provider", "error", err)
		return nil, fmt.Errorf("create audio provider: %w", err)
	}

	locator, err := newProcessLocator(logger)
	if err != nil {
		logger.Errorw("Failed to create process locator", "error", err)
		_ = provider.Release()
		return nil, fmt.Errorf("create process locator: %w", err)
	}

	return NewWithProvider(logger, config, provider, locator), nil
}

// NewWithProvider creates a WinMix instance on top of the given audio provider and process locator
func NewWithProvider(logger *zap.SugaredLogger, config *Config, provider AudioProvider, locator ProcessLocator) *WinMix {
	logger = logger.Named("winmix")

	if config == nil {
		config = DefaultConfig()
	}

	exclude := make([]string, 0, len(config.Exclude))
	for _, name := range config.Exclude {
		exclude = append(exclude, strings.ToLower(name))
	}

	wm := &WinMix{
		logger:         logger,
		endpointLogger: logger.Named("endpoints"),
		resolverLogger: logger.Named("resolver"),
		sessionLogger:  logger.Named("sessions"),
		config:         *config,
		exclude:        exclude,
		provider:       provider,
		locator:        locator,
	}

	logger.Debug("Created winmix instance")

	return wm
}

// Enumerate returns a fresh snapshot of every program currently playing audio, each with its own
// volume control. Programs that can't be attributed to a live process are left out. The only errors
// are ErrDeviceUnavailable and ErrSessionManagerUnavailable, in which case no sessions are returned.
//
// The caller owns the returned volume controls and should Release them when done.
func (wm *WinMix) Enumerate() ([]AudioSession, error) {
	endpoints, err := wm.locateEndpoints()
	if err != nil {
		return nil, err
	}
	defer releaseEndpoints(endpoints)

	sessions := []AudioSession{}
	targets := map[string]struct{}{}

	for _, endpoint := range endpoints {
		if err := wm.enumerateEndpoint(endpoint, targets, &sessions); err != nil {
			Release(sessions)
			return nil, err
		}
	}

	wm.logger.Debugw("Enumerated audio sessions", "count", len(sessions))

	return sessions, nil
}

// Close releases the audio provider. Volume controls handed out earlier may stop working.
func (wm *WinMix) Close() error {
	if err := wm.provider.Release(); err != nil {
		wm.logger.Warnw("Failed to release audio provider", "error", err)
		return fmt.Errorf("release audio provider: %w", err)
	}

	wm.logger.Debug("Released winmix instance")
	return nil
}

func (wm *WinMix) enumerateEndpoint(endpoint Endpoint, targets map[string]struct{}, sessions *[]AudioSession) error {
	manager, controls, err := wm.listSessions(endpoint)
	if err != nil {
		return err
	}

	// session objects go first, the manager after them
	defer manager.Release()
	defer releaseSessionControls(controls)

	for sessionIdx, control := range controls {
		identity, ok := wm.resolve(control)
		if !ok {
			continue
		}

		if wm.excluded(identity.path) {
			wm.sessionLogger.Debugw("Excluding session by config", "pid", identity.pid, "path", identity.path)
			continue
		}

		volume, err := control.SimpleAudioVolume()
		if err != nil {
			wm.sessionLogger.Warnw("Failed to bind session volume control, skipping session",
				"sessionIdx", sessionIdx,
				"pid", identity.pid,
				"error", err)

			continue
		}

		target := volume.Target()
		if _, seen := targets[target]; seen {
			wm.sessionLogger.Warnw("Session volume control already bound, skipping duplicate",
				"pid", identity.pid,
				"target", target)

			volume.Release()
			continue
		}
		targets[target] = struct{}{}

		session := AudioSession{
			PID:        identity.pid,
			Path:       identity.path,
			EndpointID: endpoint.ID(),
			Volume:     newVolumeControl(wm.sessionLogger.Named(executableName(identity.path)), volume),
		}

		wm.sessionLogger.Debugw("Created audio session instance", "session", session)
		*sessions = append(*sessions, session)
	}

	return nil
}

func (wm *WinMix) excluded(path string) bool {
	if len(wm.exclude) == 0 {
		return false
	}

	return funk.ContainsString(wm.exclude, strings.ToLower(executableName(path)))
}
