package main

import (
	"github.com/spf13/cobra"

	"github.com/HendryAvila/relnotes/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Logs would tear the alt screen.
			a.logToFile = true
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.openCatalog()
			if err != nil {
				return err
			}
			store, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()

			ai, err := a.newAI(cmd.Context(), nil)
			if err != nil {
				return err
			}
			m := tui.New(tui.Config{
				Catalog:    products,
				Prefs:      store,
				AI:         ai,
				Log:        a.log,
				AskTimeout: a.cfg.AI.Timeout.Std(),
			})
			return tui.Run(cmd.Context(), m)
		},
	}
	return cmd
}
