// Package main is a terminal client for a reader service.
//
// Each line of input is an answer.  Input that parses as JSON is sent
// as JSON, so "3" is a number and "[\"red\",\"blue\"]" is a set.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/util"

	"go.uber.org/zap"
)

func main() {
	var (
		base    = flag.String("u", "http://localhost:8080", "reader service URL")
		id      = flag.String("e", "", "exploration id (random if empty)")
		timeout = flag.Duration("t", 10*time.Second, "request timeout")
		logMode = flag.String("log", "quiet", "log mode: dev, prod, or quiet")
	)
	flag.Parse()

	logger := util.MustLogger(*logMode)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := NewClient(*base, *timeout)
	if err != nil {
		logger.Fatal("client", zap.Error(err))
	}

	if err := Explore(ctx, c, *id, os.Stdin, os.Stdout, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Explore runs an interactive session until the exploration finishes
// or the input ends.
func Explore(ctx context.Context, c *Client, explorationId string, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := c.Start(ctx, explorationId)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s\n\n", res.Title)
	show(out, res, logger)

	lines := bufio.NewScanner(in)
	for !res.Finished {
		fmt.Fprintf(out, "> ")
		if !lines.Scan() {
			fmt.Fprintln(out)
			return lines.Err()
		}
		answer := ParseAnswer(lines.Text())
		if answer == "" && res.DefaultAnswer != nil {
			answer = ParseAnswer(string(res.DefaultAnswer))
		}

		next, err := c.Transition(ctx, res, answer)
		if err != nil {
			var se *ServiceError
			if errors.As(err, &se) && se.StatusCode == http.StatusBadRequest {
				fmt.Fprintf(out, "! %s\n", se.Message)
				continue
			}
			return err
		}
		logger.Debug("transition",
			zap.String("from", res.StateId),
			zap.String("to", next.StateId))

		// A sticky widget stays as it was.
		if next.StickyInteractiveWidget {
			next.InteractiveWidgetHTML = res.InteractiveWidgetHTML
		}
		res = next
		show(out, res, logger)
	}

	fmt.Fprintf(out, "\n(%s)\n", core.End)
	return nil
}

func show(out io.Writer, res *core.Result, logger *zap.Logger) {
	for _, src := range []string{res.ReaderHTML, res.HTML, res.InteractiveWidgetHTML} {
		if src == "" {
			continue
		}
		s, err := Text(src)
		if err != nil {
			logger.Warn("can't render", zap.Error(err))
			continue
		}
		if s != "" {
			fmt.Fprintln(out, s)
		}
	}
}
