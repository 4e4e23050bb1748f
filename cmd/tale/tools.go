package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Comcast/tale/tools"

	"github.com/spf13/cobra"
)

var (
	outFile string

	dotMermaid bool
	dotPNG     string
	dotSetters bool
	dotTags    bool

	proofCSS []string

	dotCmd = &cobra.Command{
		Use:   "dot STORY",
		Short: "Write the story's passage graph for Graphviz or Mermaid",
		Args:  cobra.ExactArgs(1),
		RunE:  runDot,
	}

	proofCmd = &cobra.Command{
		Use:   "proof STORY",
		Short: "Write an HTML proofing page for the story",
		Args:  cobra.ExactArgs(1),
		RunE:  runProof,
	}

	checkCmd = &cobra.Command{
		Use:   "check STORY",
		Short: "Report broken links, orphans, and other problems",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
)

func init() {
	for _, c := range []*cobra.Command{dotCmd, proofCmd} {
		c.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	}
	dotCmd.Flags().BoolVarP(&dotMermaid, "mermaid", "m", false, "write Mermaid instead of dot")
	dotCmd.Flags().StringVar(&dotPNG, "png", "", "write BASENAME.dot and BASENAME.png with Graphviz")
	dotCmd.Flags().BoolVar(&dotSetters, "setters", false, "label links with their setters")
	dotCmd.Flags().BoolVar(&dotTags, "tags", false, "show passage tags")
	proofCmd.Flags().StringSliceVar(&proofCSS, "css", nil, "stylesheet URLs")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func output(cmd *cobra.Command) (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(outFile)
}

func runDot(cmd *cobra.Command, args []string) error {
	st, err := loadStory(args[0])
	if err != nil {
		return err
	}

	opts := &tools.DotOpts{
		Start:   cfg.Start,
		Setters: dotSetters,
		Tags:    dotTags,
	}

	if dotPNG != "" {
		png, err := tools.PNG(st, dotPNG, opts)
		if err != nil {
			return err
		}
		logger.Info("wrote", "file", png)
		return nil
	}

	w, err := output(cmd)
	if err != nil {
		return err
	}
	if dotMermaid {
		return tools.Mermaid(st, w, &tools.MermaidOpts{
			ShowSetters: dotSetters,
			SpecialFill: "#bcf2db",
		})
	}
	return tools.Dot(st, w, opts)
}

func runProof(cmd *cobra.Command, args []string) error {
	st, err := loadStory(args[0])
	if err != nil {
		return err
	}
	w, err := output(cmd)
	if err != nil {
		return err
	}
	if err := tools.RenderProofPage(st, w, proofCSS); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func runCheck(cmd *cobra.Command, args []string) error {
	st, err := loadStory(args[0])
	if err != nil {
		return err
	}
	a, err := tools.Analyze(st, cfg.Start)
	if err != nil {
		return err
	}
	report, err := a.YAML()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report)
	if !a.OK() {
		return fmt.Errorf("%d problems", len(a.Errors))
	}
	return nil
}
