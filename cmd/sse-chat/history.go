package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nachoal/sse-chat-go/chat"
	"github.com/nachoal/sse-chat-go/history"
	"github.com/nachoal/sse-chat-go/internal/cache"
	"github.com/nachoal/sse-chat-go/internal/export"
)

var (
	historyBelow   int64
	historyAbove   int64
	historyOffline bool

	showFormat  string
	showOffline bool

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List stored conversations, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	showCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
)

func init() {
	historyCmd.Flags().Int64Var(&historyBelow, "below", 0, "Only conversations older than ID")
	historyCmd.Flags().Int64Var(&historyAbove, "above", 0, "Only conversations newer than ID")
	historyCmd.Flags().BoolVar(&historyOffline, "offline", false, "Read from the local cache")
	historyCmd.MarkFlagsMutuallyExclusive("below", "above")

	showCmd.Flags().StringVar(&showFormat, "format", export.FormatMarkdown, "Output format (markdown, yaml)")
	showCmd.Flags().BoolVar(&showOffline, "offline", false, "Read from the local cache")
}

func openCache() (*cache.Cache, error) {
	return cache.Open(filepath.Join(cfg.Dir(), "cache.db"))
}

func runHistory(cmd *cobra.Command, _ []string) error {
	c, err := openCache()
	if err != nil && historyOffline {
		return err
	}
	if err != nil {
		logger.Warn("cache unavailable", slog.String("error", err.Error()))
		c = nil
	}
	if c != nil {
		defer c.Close()
	}

	var entries []history.Entry
	if historyOffline {
		switch {
		case historyBelow != 0:
			entries, err = c.EntriesBelow(historyBelow, history.PageSize)
		case historyAbove != 0:
			entries, err = c.EntriesAbove(historyAbove, history.PageSize)
		default:
			entries, err = c.Entries(history.PageSize)
		}
		if err != nil {
			return err
		}
	} else {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		switch {
		case historyBelow != 0:
			entries, err = client.ChatsBelow(ctx, historyBelow)
		case historyAbove != 0:
			entries, err = client.ChatsAbove(ctx, historyAbove)
		default:
			entries, err = client.Chats(ctx)
		}
		if err != nil {
			return err
		}
		if c != nil {
			if err := c.PutEntries(entries); err != nil {
				logger.Warn("cache write failed", slog.String("error", err.Error()))
			}
		}
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No conversations found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\n", e.ID, e.DisplayTitle())
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid conversation id %q", args[0])
	}

	c, err := openCache()
	if err != nil && showOffline {
		return err
	}
	if err != nil {
		logger.Warn("cache unavailable", slog.String("error", err.Error()))
		c = nil
	}
	if c != nil {
		defer c.Close()
	}

	entry := history.Entry{ID: id}
	if c != nil {
		if cached, err := c.Entry(id); err == nil {
			entry = cached
		} else if !errors.Is(err, cache.ErrNotCached) {
			logger.Warn("cache read failed", slog.String("error", err.Error()))
		}
	}

	var msgs []chat.Message
	if showOffline {
		stored, err := c.Transcript(id)
		if err != nil {
			return err
		}
		msgs = chat.FromStored(stored)
	} else {
		client, err := newClient()
		if err != nil {
			return err
		}
		stored, err := client.Messages(cmd.Context(), id)
		if err != nil {
			return err
		}
		if c != nil {
			if err := c.PutTranscript(id, stored); err != nil {
				logger.Warn("cache write failed", slog.String("error", err.Error()))
			}
		}
		msgs = chat.FromStored(stored)
	}

	return export.Write(os.Stdout, showFormat, entry, msgs)
}
