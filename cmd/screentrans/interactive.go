package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/screentrans/internal/capture"
	"codeberg.org/snonux/screentrans/internal/logging"
	"codeberg.org/snonux/screentrans/internal/pipeline"
	"codeberg.org/snonux/screentrans/internal/present"
)

const interactiveHelp = `Enter a region as x,y,width,height to translate it.
Commands:
  lang <code>   change the target language
  cancel        cancel the running request
  stats         show statistics
  help          show this help
  quit          exit`

// interactive reads triggers from in until EOF, "quit" or ctx is done.
// Each region line is a new request and supersedes the running one.
func interactive(ctx context.Context, coord *pipeline.Coordinator, in io.Reader, out io.Writer, log *logging.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, interactiveHelp)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(ctx, coord, strings.TrimSpace(line), out)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				log.Debug("interactive command failed", "line", line, "error", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func handleLine(ctx context.Context, coord *pipeline.Coordinator, line string, out io.Writer) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(out, interactiveHelp)
	case "cancel":
		if !coord.CancelActive() {
			fmt.Fprintln(out, "Nothing to cancel")
		}
	case "stats":
		present.PrintStats(out, coord.Stats())
		if req, state, ok := coord.Active(); ok {
			fmt.Fprintf(out, "Active: %s on %s (%s)\n", req.ID, req.Region, state)
		} else {
			fmt.Fprintln(out, "No active request")
		}
	case "lang":
		cfg := coord.Config()
		cfg.TargetLanguage = strings.TrimSpace(arg)
		if err := coord.UpdateConfig(cfg); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Target language: %s\n", cfg.TargetLanguage)
	default:
		region, err := capture.ParseRegion(line)
		if err != nil {
			return false, err
		}
		if _, err := coord.Submit(ctx, region); err != nil {
			return false, err
		}
	}
	return false, nil
}
