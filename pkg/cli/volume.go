package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/nik9play/winmix/pkg/winmix"
)

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <target>",
		Short: "Show a program's volume and mute state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTarget(args[0], func(session winmix.AudioSession) error {
				return a.printState(cmd.OutOrStdout(), session)
			})
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <target> <level>",
		Short: "Set a program's volume, as 0-1 or a percentage like 40%",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[1])
			if err != nil {
				return a.invalidLevel(args[1])
			}

			return a.withTarget(args[0], func(session winmix.AudioSession) error {
				if err := session.Volume.SetMasterVolume(level); err != nil {
					if errors.Is(err, winmix.ErrInvalidArgument) {
						return a.invalidLevel(args[1])
					}

					return a.sessionError(session, err)
				}

				return a.printState(cmd.OutOrStdout(), session)
			})
		},
	}
}

// muteCmd builds mute, unmute and toggle, which only differ in the state they go to
func (a *app) muteCmd(use string, short string, next func(muted bool) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <target>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTarget(args[0], func(session winmix.AudioSession) error {
				muted, err := session.Volume.Mute()
				if err != nil {
					return a.sessionError(session, err)
				}

				if err := session.Volume.SetMute(next(muted)); err != nil {
					return a.sessionError(session, err)
				}

				return a.printState(cmd.OutOrStdout(), session)
			})
		},
	}
}

// withTarget runs fn for every session matching target. An invalid level stops right away,
// other failures are collected so one ended session doesn't hide the rest.
func (a *app) withTarget(target string, fn func(session winmix.AudioSession) error) error {
	return a.withSessions(func(sessions []winmix.AudioSession) error {
		matched, err := a.matchSessions(target, sessions)
		if err != nil {
			return err
		}

		var result error
		for _, session := range matched {
			if err := fn(session); err != nil {
				var levelErr *invalidLevelError
				if errors.As(err, &levelErr) {
					return err
				}

				result = multierr.Append(result, err)
			}
		}

		return result
	})
}

func (a *app) printState(w io.Writer, session winmix.AudioSession) error {
	level, err := session.Volume.MasterVolume()
	if err != nil {
		return a.sessionError(session, err)
	}

	muted, err := session.Volume.Mute()
	if err != nil {
		return a.sessionError(session, err)
	}

	line := a.localize("SessionState", "{{.Name}} (pid {{.PID}}): {{.Volume}}%", map[string]interface{}{
		"Name":   session.Name(),
		"PID":    session.PID,
		"Volume": percent(level),
	})

	if muted {
		line += " (" + a.localize("SessionMuted", "muted", nil) + ")"
	}

	_, err = fmt.Fprintln(w, line)
	return err
}

func (a *app) sessionError(session winmix.AudioSession, err error) error {
	a.logger.Debugw("Session operation failed", "session", session, "error", err)

	if errors.Is(err, winmix.ErrControlUnavailable) {
		return errors.New(a.localize("SessionUnavailable", "{{.Name}} (pid {{.PID}}): session is no longer available",
			map[string]interface{}{"Name": session.Name(), "PID": session.PID}))
	}

	return err
}

// invalidLevelError carries the localized message for a level outside [0, 1]
type invalidLevelError struct {
	message string
}

func (e *invalidLevelError) Error() string {
	return e.message
}

func (a *app) invalidLevel(level string) error {
	return &invalidLevelError{
		message: a.localize("InvalidLevel", "Invalid volume level {{.Level}}, use a value between 0 and 1 or 0% and 100%",
			map[string]interface{}{"Level": level}),
	}
}

// parseLevel accepts a fraction ("0.4") or a percentage ("40%") within [0, 1]
func parseLevel(s string) (float32, error) {
	s = strings.TrimSpace(s)

	isPercent := strings.HasSuffix(s, "%")
	value, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 32)
	if err != nil {
		return 0, fmt.Errorf("parse volume level %q: %w", s, err)
	}

	if isPercent {
		value /= 100
	}

	if math.IsNaN(value) || value < 0 || value > 1 {
		return 0, fmt.Errorf("volume level %q out of range", s)
	}

	return float32(value), nil
}
