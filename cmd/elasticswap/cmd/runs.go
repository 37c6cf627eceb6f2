package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsDB string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, show and remove stored runs",
}

var runsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored runs, newest first",
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(s storeReader) error {
			runs, err := s.ListRuns()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(c.OutOrStdout(), "no runs stored")
				return nil
			}
			renderRuns(c.OutOrStdout(), runs)
			return nil
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its learning curve",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(s storeReader) error {
			id, err := resolveRunID(s, args[0])
			if err != nil {
				return err
			}
			run, err := s.LoadRun(id)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", id)
			}
			renderRunDetail(c.OutOrStdout(), run)
			return nil
		})
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove stored runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		return withStore(func(s storeReader) error {
			for _, arg := range args {
				id, err := resolveRunID(s, arg)
				if err != nil {
					return err
				}
				if err := s.DeleteRun(id); err != nil {
					return err
				}
				fmt.Fprintf(c.OutOrStdout(), "%s✓ removed%s %s\n", colorGreen, colorReset, id)
			}
			return nil
		})
	},
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "run store path (overrides config)")
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsRmCmd)
}

func withStore(fn func(storeReader) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Storage.Path
	if runsDB != "" {
		path = runsDB
	}
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
