package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/nik9play/winmix/pkg/winmix"
	"github.com/nik9play/winmix/pkg/winmix/util"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputTOML  = "toml"
)

// sessionRow is what list prints for one session
type sessionRow struct {
	PID      uint32  `json:"pid" toml:"pid"`
	Name     string  `json:"name" toml:"name"`
	Path     string  `json:"path" toml:"path"`
	Endpoint string  `json:"endpoint" toml:"endpoint"`
	Volume   float32 `json:"volume" toml:"volume"`
	Muted    bool    `json:"muted" toml:"muted"`

	// set when the session ended between enumeration and reading its state
	Unavailable bool `json:"unavailable,omitempty" toml:"unavailable,omitempty"`
}

type tomlSessions struct {
	Sessions []sessionRow `toml:"session"`
}

func (a *app) listCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List programs that currently play audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case outputTable, outputJSON, outputTOML:
			default:
				return errors.New(a.localize("UnknownOutputFormat", "Unknown output format {{.Format}}, use one of: table, json, toml",
					map[string]interface{}{"Format": output}))
			}

			return a.withSessions(func(sessions []winmix.AudioSession) error {
				rows := make([]sessionRow, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, a.rowFor(session))
				}

				return a.writeRows(cmd.OutOrStdout(), output, rows)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or toml")

	return cmd
}

func (a *app) rowFor(session winmix.AudioSession) sessionRow {
	row := sessionRow{
		PID:      session.PID,
		Name:     session.Name(),
		Path:     session.Path,
		Endpoint: session.EndpointID,
	}

	level, err := session.Volume.MasterVolume()
	if err != nil {
		a.logger.Debugw("Failed to read session volume", "session", session, "error", err)
		row.Unavailable = true
		return row
	}

	muted, err := session.Volume.Mute()
	if err != nil {
		a.logger.Debugw("Failed to read session mute state", "session", session, "error", err)
		row.Unavailable = true
		return row
	}

	row.Volume = util.NormalizeScalar(level)
	row.Muted = muted

	return row
}

func (a *app) writeRows(w io.Writer, output string, rows []sessionRow) error {
	switch output {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(rows); err != nil {
			return fmt.Errorf("encode sessions as json: %w", err)
		}

	case outputTOML:
		if err := toml.NewEncoder(w).Encode(tomlSessions{Sessions: rows}); err != nil {
			return fmt.Errorf("encode sessions as toml: %w", err)
		}

	default:
		return a.writeTable(w, rows)
	}

	return nil
}

func (a *app) writeTable(w io.Writer, rows []sessionRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, a.localize("NoSessions", "No programs are playing audio", nil))
		return err
	}

	yes := a.localize("Yes", "yes", nil)
	no := a.localize("No", "no", nil)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "PID\t%s\t%s\t%s\t%s\t%s\n",
		a.localize("TableName", "NAME", nil),
		a.localize("TableVolume", "VOLUME", nil),
		a.localize("TableMuted", "MUTED", nil),
		a.localize("TableEndpoint", "ENDPOINT", nil),
		a.localize("TablePath", "PATH", nil))

	for _, row := range rows {
		volume, muted := "-", "-"
		if !row.Unavailable {
			volume = fmt.Sprintf("%d%%", percent(row.Volume))

			muted = no
			if row.Muted {
				muted = yes
			}
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", row.PID, row.Name, volume, muted, row.Endpoint, row.Path)
	}

	return tw.Flush()
}

func percent(level float32) int {
	return int(math.Round(float64(level) * 100))
}
