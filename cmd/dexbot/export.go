package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/site"
)

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved research reports as a static site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := research.NewFileSessionStore(a.cfg.SessionsDir())
			m, err := site.Export(store, out, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions (%d complete) to %s\n", m.Stats.Total, m.Stats.Complete, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "site", "Output directory")
	return cmd
}
