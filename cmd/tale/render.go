package main

import (
	"context"
	"fmt"

	"github.com/Comcast/tale/engine"
	"github.com/Comcast/tale/storage"

	"github.com/spf13/cobra"
)

var (
	renderText bool

	renderCmd = &cobra.Command{
		Use:   "render STORY [PASSAGE]",
		Short: "Start a story and print the first page",
		Long: `Start a story in a throwaway session and print the HTML of the
start passage or of the given passage.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runRender,
	}
)

func init() {
	renderCmd.Flags().BoolVarP(&renderText, "text", "t", false, "print text rather than HTML")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := loadStory(args[0])
	if err != nil {
		return err
	}

	var last *engine.Page
	e, err := newEngine(ctx, st, storage.NewMemorySessions(), nil, "render", func(ctx context.Context, p *engine.Page) error {
		last = p
		return nil
	})
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if err := e.Play(ctx, args[1]); err != nil {
			return err
		}
	}
	if last == nil {
		return fmt.Errorf("nothing rendered")
	}

	out := cmd.OutOrStdout()
	if renderText {
		return printPage(out, last)
	}
	fmt.Fprintln(out, last.HTML())
	for _, msg := range last.Errors {
		logger.Warn("render", "error", msg)
	}
	return nil
}
