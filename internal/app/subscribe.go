package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/polkadot-util/internal/headstore"
	"github.com/eigerco/polkadot-util/pkg/db/pebble"
	"github.com/eigerco/polkadot-util/pkg/log"
	"github.com/eigerco/polkadot-util/pkg/rpc"
)

const unsubscribeTimeout = 5 * time.Second

var errSubscriptionEnded = errors.New("subscription ended by the node")

func newSubscribeCommands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "subscribe",
			Usage:     "Print new block numbers reported by a node",
			UsageText: "subscribe [--endpoint <ws-url>] [--duration <d>] [--count <n>] [--store <dir>]",
			Description: `Subscribes to new block headers, prints the number of every head and
   unsubscribes once the duration elapsed, count heads arrived or the process
   is interrupted. A zero duration keeps the subscription open. With a store
   directory every header is also recorded for the heads command.
`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "endpoint",
					Aliases: []string{"e"},
					Usage:   "Node websocket endpoint (overrides node.endpoint)",
				},
				&cli.DurationFlag{
					Name:    "duration",
					Aliases: []string{"d"},
					Usage:   "How long to stay subscribed (overrides subscribe.duration)",
				},
				&cli.IntFlag{
					Name:    "count",
					Aliases: []string{"n"},
					Usage:   "Stop after this many heads (0 for no limit)",
				},
				storeFlag,
			},
			Action: e.handleSubscribe,
		},
	}
}

func (e *env) handleSubscribe(ctx *cli.Context) error {
	cfg := e.cfg
	if ctx.IsSet("endpoint") {
		cfg.Node.Endpoint = ctx.String("endpoint")
	}
	if ctx.IsSet("duration") {
		cfg.Subscribe.Duration = ctx.Duration("duration")
	}
	if ctx.IsSet("store") {
		cfg.Store.Path = ctx.String("store")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var heads *headstore.Store
	if cfg.Store.Path != "" {
		kv, err := pebble.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("opening head store: %w", err)
		}
		defer kv.Close()
		heads = headstore.New(kv)
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Subscribe.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, cfg.Subscribe.Duration)
		defer cancel()
	}

	client, err := rpc.Dial(runCtx, cfg.Node.Endpoint, rpc.Options{
		DialTimeout:    cfg.Node.DialTimeout,
		RequestTimeout: cfg.Node.RequestTimeout,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	sub, err := client.SubscribeNewHeads(runCtx)
	if err != nil {
		return err
	}

	err = followHeads(ctx, runCtx, sub, heads, ctx.Int("count"))

	unsubCtx, cancel := context.WithTimeout(ctx.Context, unsubscribeTimeout)
	defer cancel()
	if uerr := sub.Unsubscribe(unsubCtx); uerr != nil && !errors.Is(uerr, rpc.ErrSubscriptionClosed) {
		log.RPC.Warn().Err(uerr).Msg("unsubscribe failed")
	}
	return err
}

func followHeads(ctx *cli.Context, runCtx context.Context, sub *rpc.Subscription, heads *headstore.Store, limit int) error {
	seen := 0
	for {
		select {
		case <-runCtx.Done():
			log.Root.Info().Int("heads", seen).Msg("subscription window closed")
			return nil
		case raw, ok := <-sub.Notifications():
			if !ok {
				return errSubscriptionEnded
			}
			header, err := rpc.DecodeHeader(raw)
			if err != nil {
				log.RPC.Warn().Err(err).Msg("skipping malformed header")
				continue
			}
			number, err := header.BlockNumber()
			if err != nil {
				log.RPC.Warn().Err(err).Str("number", header.Number).Msg("skipping header")
				continue
			}
			fmt.Fprintf(ctx.App.Writer, "Chain is at block: #%s\n", number)
			if heads != nil {
				if err := heads.Put(header); err != nil {
					return fmt.Errorf("recording head #%s: %w", number, err)
				}
			}

			seen++
			if limit > 0 && seen >= limit {
				return nil
			}
		}
	}
}
