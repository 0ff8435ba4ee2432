package cli

import (
	"github.com/spf13/cobra"

	"netcore/internal/service"
)

func newImportCmd(configPath *string) *cobra.Command {
	var (
		dir       string
		discovery string
		portScan  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import nmap scan results into the inventory",
		Long: `Import a host discovery scan and a port scan, classify new hosts and link
routers to the other devices.

By default the two documents are read from the scan directory
(` + service.DefaultDiscoveryFile + ` and ` + service.DefaultPortScanFile + `).
Addresses already in the inventory are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			im := a.importer()
			var result service.ImportResult
			if discovery != "" || portScan != "" {
				result, err = im.ImportFiles(cmd.Context(), discovery, portScan)
			} else {
				if dir == "" {
					dir = a.cfg.Scan.Dir
				}
				result, err = im.ImportDir(cmd.Context(), dir)
			}
			if err != nil {
				return err
			}

			cmd.Printf("Devices created: %d\n", result.DevicesCreated)
			cmd.Printf("Devices skipped: %d\n", result.DevicesSkipped)
			cmd.Printf("Links created:   %d\n", result.LinksCreated)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "scan directory (default: scan.dir / NMAP_DIR)")
	cmd.Flags().StringVar(&discovery, "discovery", "", "host discovery XML file")
	cmd.Flags().StringVar(&portScan, "ports", "", "port scan XML file")
	cmd.MarkFlagsRequiredTogether("discovery", "ports")
	cmd.MarkFlagsMutuallyExclusive("dir", "discovery")

	return cmd
}

func newLinkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Link every router to every other device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.linker().LinkRouters(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Links created: %d\n", n)
			return nil
		},
	}
}
