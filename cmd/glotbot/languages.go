package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/awfukui/glotbot/internal/language"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages users can pick as a translation target",
		RunE: func(cmd *cobra.Command, args []string) error {
			bold := color.New(color.Bold)
			for _, code := range language.Codes() {
				name := language.Name(code)
				if code == language.DefaultCode {
					if _, err := bold.Printf("%s\t%s (default)\n", code, name); err != nil {
						return fmt.Errorf("bold.Printf() > %w", err)
					}
					continue
				}
				fmt.Printf("%s\t%s\n", code, name)
			}
			return nil
		},
	}
}
