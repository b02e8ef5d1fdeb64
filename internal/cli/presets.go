package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/presets"
)

// PresetInfo describes one built-in preset.
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List built-in presets",
		Long: `List the built-in presets accepted by "loopsim run --preset".

Examples:
  loopsim presets
  loopsim presets --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPresets(rootOpts, cmd)
		},
	}
	return cmd
}

func runPresets(opts *RootOptions, cmd *cobra.Command) error {
	all := presets.All()
	infos := make([]PresetInfo, len(all))
	for i, p := range all {
		infos[i] = PresetInfo{Name: p.Name, Description: p.Description}
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(infos)
	}

	w := cmd.OutOrStdout()
	for _, p := range infos {
		fmt.Fprintf(w, "%-20s %s\n", p.Name, p.Description)
	}
	return nil
}
