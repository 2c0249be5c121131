// Package cli implements the winmix command line: listing the programs that play audio
// and reading or changing their volume and mute state.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nik9play/winmix/pkg/winmix"
	"github.com/nik9play/winmix/pkg/winmix/util"
)

// BuildInfo is injected at link time by the build scripts
type BuildInfo struct {
	BuildType  string
	GitCommit  string
	VersionTag string
}

// Mixer is the part of winmix.WinMix the commands need
type Mixer interface {
	Enumerate() ([]winmix.AudioSession, error)
	Close() error
}

// MixerFactory creates the Mixer a command works with, once the config is known
type MixerFactory func(logger *zap.SugaredLogger, config *winmix.Config) (Mixer, error)

type app struct {
	info BuildInfo

	newMixer        MixerFactory
	foregroundNames func() ([]string, error)

	logger    *zap.SugaredLogger
	config    *winmix.Config
	localizer *i18n.Localizer

	configPath   string
	verbose      bool
	allEndpoints bool
	lang         string
}

// Execute runs the winmix command line and exits the process on failure
func Execute(info BuildInfo) {
	a := &app{
		info:            info,
		newMixer:        newWinMix,
		foregroundNames: util.GetCurrentWindowProcessNames,
	}

	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newWinMix(logger *zap.SugaredLogger, config *winmix.Config) (Mixer, error) {
	wm, err := winmix.New(logger, config)
	if err != nil {
		return nil, err
	}

	return wm, nil
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "winmix",
		Short:             "Per-program volume control",
		Version:           a.version(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ./winmix.yaml if present)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "show verbose logs")
	flags.BoolVar(&a.allEndpoints, "all-endpoints", false, "use sessions from every active output device")
	flags.StringVar(&a.lang, "lang", "", "message language, e.g. en or ru (default from config)")

	cmd.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.setCmd(),
		a.muteCmd("mute", "Mute a program", func(bool) bool { return true }),
		a.muteCmd("unmute", "Unmute a program", func(bool) bool { return false }),
		a.muteCmd("toggle", "Toggle a program's mute state", func(muted bool) bool { return !muted }),
	)

	return cmd
}

func (a *app) version() string {
	identifier := a.info.GitCommit
	if a.info.VersionTag != "" {
		identifier = a.info.VersionTag
	}

	if identifier == "" {
		return ""
	}

	if a.info.BuildType == "" {
		return identifier
	}

	return fmt.Sprintf("%s-%s", a.info.BuildType, identifier)
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	if a.logger == nil {
		logger, err := winmix.NewLogger(a.info.BuildType, a.verbose)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		a.logger = logger
	}

	named := a.logger.Named("main")
	named.Debugw("Version info",
		"gitCommit", a.info.GitCommit,
		"versionTag", a.info.VersionTag,
		"buildType", a.info.BuildType)

	config, err := winmix.LoadConfig(a.logger, a.configPath)
	if err != nil {
		named.Errorw("Failed to load config", "error", err)
		return fmt.Errorf("load config: %w", err)
	}

	// flags win over the config file
	if a.allEndpoints {
		config.AllEndpoints = true
	}
	if a.lang != "" {
		config.Language = a.lang
	}

	a.config = config

	bundle, err := newBundle()
	if err != nil {
		named.Errorw("Failed to create message bundle", "error", err)
		return fmt.Errorf("create message bundle: %w", err)
	}

	a.localizer = newLocalizer(named, bundle, config.Language)

	return nil
}

// withSessions runs fn on a fresh enumeration and releases everything afterwards
func (a *app) withSessions(fn func(sessions []winmix.AudioSession) error) error {
	mixer, err := a.newMixer(a.logger, a.config)
	if err != nil {
		return errors.New(a.localize("CreateMixerFailed", "Failed to connect to the audio system: {{.Error}}",
			map[string]interface{}{"Error": err}))
	}

	defer func() {
		if err := mixer.Close(); err != nil {
			a.logger.Warnw("Failed to close mixer", "error", err)
		}
	}()

	sessions, err := mixer.Enumerate()
	if err != nil {
		a.logger.Debugw("Failed to enumerate sessions", "error", err)
		return a.enumerateError(err)
	}
	defer winmix.Release(sessions)

	return fn(sessions)
}

func (a *app) enumerateError(err error) error {
	switch {
	case errors.Is(err, winmix.ErrDeviceUnavailable):
		return errors.New(a.localize("DeviceUnavailable", "No active audio output device", nil))
	case errors.Is(err, winmix.ErrSessionManagerUnavailable):
		return errors.New(a.localize("SessionManagerUnavailable", "Failed to get the audio sessions of the output device", nil))
	default:
		return err
	}
}
