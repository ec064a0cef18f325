// Package main is a terminal viewer for the live token feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"token-pulse/internal/domain"
	"token-pulse/internal/feed"
	"token-pulse/internal/render"
)

const clearScreen = "\033[H\033[2J"

func main() {
	url := flag.String("url", envOr("TOKEN_PULSE_FEED_URL", "ws://localhost:8080/ws"), "Feed WebSocket URL")
	filter := flag.String("filter", "", "Category tab: all, new, final, migrated")
	sortField := flag.String("sort", "", "Sort field: market_cap, liquidity, volume, transactions, price_change")
	order := flag.String("order", "desc", "Sort order: asc or desc")
	timeframe := flag.String("timeframe", "", "Chart timeframe: 1m, 5m, 30m, 1h")
	detail := flag.String("detail", "", "Token id to open in the detail panel")
	once := flag.Bool("once", false, "Print the first snapshot and exit")
	noClear := flag.Bool("no-clear", false, "Do not clear the screen between frames")

	flag.Parse()

	logger := log.New(os.Stderr, "[watch] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := feed.DefaultClientConfig()
	cfg.Logger = logger
	client, err := feed.Dial(ctx, *url, &cfg)
	if err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := applyView(client, *filter, *sortField, *order, *timeframe, *detail); err != nil {
		logger.Fatalf("Failed to set view: %v", err)
	}

	// The hub replies to every intent with a snapshot; skip the ones sent
	// before the requested view is in place.
	pending := countIntents(*filter, *sortField, *timeframe, *detail)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.Messages():
			if !ok {
				return
			}
			switch msg.Type {
			case feed.MsgError:
				logger.Printf("Feed error: %s", msg.Error)
			case feed.MsgBuyAck:
				// Modal state arrives with the next snapshot
			case feed.MsgSnapshot:
				if pending > 0 {
					pending--
					continue
				}
				if msg.View == nil {
					continue
				}
				if !*noClear && !*once {
					fmt.Print(clearScreen)
				}
				fmt.Print(render.RenderFrame(render.Frame{
					SessionID: msg.SessionID,
					Tick:      msg.Tick,
					View:      *msg.View,
					Tokens:    msg.Tokens,
				}))
				if *once {
					return
				}
			}
		}
	}
}

// applyView sends the intents that set up the requested view.
func applyView(c *feed.Client, filter, sortField, order, timeframe, detail string) error {
	if filter != "" {
		if err := c.SetFilter(domain.Filter(filter)); err != nil {
			return err
		}
	}
	if timeframe != "" {
		if err := c.SetTimeframe(domain.Timeframe(timeframe)); err != nil {
			return err
		}
	}
	if sortField != "" {
		in := feed.Intent{Type: feed.IntentSetSort, Field: domain.SortField(sortField), Order: domain.SortOrder(order)}
		if err := c.Send(in); err != nil {
			return err
		}
	}
	if detail != "" {
		if err := c.Buy(detail); err != nil {
			return err
		}
	}
	return nil
}

func countIntents(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
