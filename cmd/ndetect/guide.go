package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

//go:embed guide.md
var guideText string

func newGuideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide",
		Short: "Show the usage guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), renderGuide())
			return nil
		},
	}
}

// renderGuide renders the embedded guide, falling back to the raw
// markdown when rendering fails or stdout is not a terminal
func renderGuide() string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return guideText
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return guideText
	}
	rendered, err := renderer.Render(guideText)
	if err != nil {
		return guideText
	}
	return rendered
}
