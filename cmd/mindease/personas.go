package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mindease/internal/config"
	"mindease/internal/prompt"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the available personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		all, err := prompt.LoadPresets(cfg.PersonasPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range prompt.Names(all) {
			p := all[name]
			marker := " "
			if name == cfg.Persona {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-12s %s\n", marker, name, p.Title)
			if p.RequireProfile {
				fmt.Fprintf(out, "  %-12s needs the user's name before greeting\n", "")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
