package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/Comcast/tale/engine"
	"github.com/Comcast/tale/markup"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var (
	playSession string

	playCmd = &cobra.Command{
		Use:   "play STORY",
		Short: "Play a story in the terminal",
		Long: `Play a story in the terminal.

Enter the number of a link to follow it.  Other commands:

  b      back
  f      forward
  r      restart
  h      history
  q      quit`,
		Args: cobra.ExactArgs(1),
		RunE: runPlay,
	}
)

func init() {
	playCmd.Flags().StringVarP(&playSession, "session", "s", "local", "session id for the configured backend")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	st, err := loadStory(args[0])
	if err != nil {
		return err
	}

	ss, err := openSessions(cfg.Session)
	if err != nil {
		return err
	}
	defer ss.Close()

	b, err := dialBroker(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	e, err := newEngine(ctx, st, ss, b, playSession, func(ctx context.Context, p *engine.Page) error {
		return printPage(out, p)
	})
	if err != nil {
		return err
	}

	return playLoop(ctx, e, cmd.InOrStdin(), out)
}

func playLoop(ctx context.Context, e *engine.Engine, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			return lines.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		var (
			line = strings.TrimSpace(lines.Text())
			err  error
		)
		switch line {
		case "":
			continue
		case "q":
			return nil
		case "b", "f":
			offset := -1
			if line == "f" {
				offset = 1
			}
			var moved bool
			if moved, err = e.Go(ctx, offset); err == nil && !moved {
				fmt.Fprintln(out, "(nowhere to go)")
			}
		case "r":
			err = e.Restart(ctx)
		case "h":
			h := e.History()
			for i, title := range h.Passages() {
				fmt.Fprintf(out, "%3d %s\n", i+1, title)
			}
		default:
			var id int
			if id, err = strconv.Atoi(line); err != nil {
				fmt.Fprintf(out, "(what's %q?)\n", line)
				continue
			}
			err = e.Follow(ctx, id-1)
		}
		if err != nil {
			if markup.IsFatal(err) {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// printPage writes the page as text followed by its numbered links.
func printPage(w io.Writer, p *engine.Page) error {
	fmt.Fprintf(w, "\n== %s ==\n\n", p.Title)
	text := strings.TrimSpace(terminalText(p.Node))
	fmt.Fprintln(w, text)

	links := markup.FindAll(p.Node, func(n *html.Node) bool {
		_, has := markup.Attr(n, "data-action")
		return markup.IsElement(n, "a") && has
	})
	if len(links) > 0 {
		fmt.Fprintln(w)
	}
	for _, a := range links {
		id, _ := markup.Attr(a, "data-action")
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %d. %s\n", n+1, markup.Text(a))
	}
	for _, msg := range p.Errors {
		fmt.Fprintf(w, "! %s\n", msg)
	}
	return nil
}

// terminalText is the text of n with line breaks for <br> and block
// elements.
func terminalText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case markup.IsElement(n, "br"):
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "blockquote", "pre":
				b.WriteString("\n")
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}
