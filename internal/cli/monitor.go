package cli

import (
	"github.com/spf13/cobra"
)

func newMonitorCmd(configPath *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Probe every device and record alive/unreachable",
		Long: `Run the liveness monitor. Every interval all devices are probed concurrently
and their status is written back in one batch. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.monitor()
			if err != nil {
				return err
			}

			if once {
				res, err := m.RunRound(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Printf("Probed %d: %d alive, %d unreachable (%s)\n",
					res.Probed, res.Alive, res.Unreachable, res.Duration)
				return nil
			}
			return m.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single round and exit")
	return cmd
}
