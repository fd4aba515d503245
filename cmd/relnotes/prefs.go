package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/relnotes/internal/prefs"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage stored preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print preferences as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()
			data, err := store.Export()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import [file]",
		Short: "Replace preferences from an exported JSON file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			store, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := store.Import(data); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences imported.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore default preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openPrefs()
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := store.ReplaceAll(prefs.Default()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences reset to defaults.")
			return nil
		},
	})
	return cmd
}
