package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/nachoal/sse-chat-go/backend"
	"github.com/nachoal/sse-chat-go/session"
)

var (
	askID           int64
	askImages       []string
	askShowThinking bool

	// Ask command for one-shot questions
	askCmd = &cobra.Command{
		Use:   "ask [message]",
		Short: "Send one message and stream the answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
)

func init() {
	askCmd.Flags().Int64Var(&askID, "id", 0, "Continue a stored conversation")
	askCmd.Flags().StringArrayVar(&askImages, "image", nil, "Attach an image file (repeatable)")
	askCmd.Flags().BoolVar(&askShowThinking, "show-thinking", false, "Print reasoning to stderr")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text := strings.Join(args, " ")

	images := make([]string, 0, len(askImages))
	for _, path := range askImages {
		part, err := backend.ImagePart(path)
		if err != nil {
			return fmt.Errorf("failed to attach %s: %w", path, err)
		}
		images = append(images, part.ImageURL.URL)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	notify := make(chan struct{}, 1)
	opts := append(sessionOptions(),
		session.WithEventRate(rate.Inf),
		session.WithListener(func(session.Event) {
			select {
			case notify <- struct{}{}:
			default:
			}
		}),
	)
	ctrl := session.New(client, opts...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()
		if err := ctrl.Close(closeCtx); err != nil {
			logger.Warn("close timed out", slog.String("error", err.Error()))
		}
	}()

	if askID != 0 {
		if err := ctrl.SwitchTo(ctx, askID, nil); err != nil {
			return err
		}
	}

	p := newPrinter(os.Stdout, os.Stderr, askShowThinking, len(ctrl.Messages()))
	if err := ctrl.Send(ctx, session.Input{Text: text, Images: images}); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- ctrl.Wait() }()

	var streamErr error
loop:
	for {
		select {
		case <-notify:
			p.update(ctrl.Messages())
		case streamErr = <-done:
			break loop
		}
	}
	p.update(ctrl.Messages())
	p.finish()

	if id := ctrl.SessionID(); id != 0 {
		fmt.Fprintf(os.Stderr, "chat %d\n", id)
		ctrl.PersistOnExit()
	}
	if streamErr != nil {
		return fmt.Errorf("stream failed: %w", streamErr)
	}
	return nil
}
