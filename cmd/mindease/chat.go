package main

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mindease/internal/app"
	"mindease/internal/config"
	"mindease/internal/tui"
)

var (
	chatSession string
	chatLogFile string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// The UI owns the terminal, so logs go to a file or nowhere.
		if chatLogFile != "" {
			f, err := tea.LogToFile(chatLogFile, "mindease")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
		} else {
			log.SetOutput(io.Discard)
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		id := chatSession
		if id == "" {
			id = cfg.SessionID
		}
		m := tui.New(cmd.Context(), a.Service, a.Sessions.Get(id))
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("run terminal ui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id (default from SESSION_ID)")
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "write logs to this file while the UI runs")
}
