package app

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/polkadot-util/internal/headstore"
	"github.com/eigerco/polkadot-util/pkg/db/pebble"
	"github.com/eigerco/polkadot-util/pkg/rpc"
	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
)

// Hashes are shortened to their first and last four bytes unless --full.
const shortHashBits = 64

var errNoStore = errors.New("no head store configured (use --store or store.path)")

var storeFlag = &cli.StringFlag{
	Name:    "store",
	Aliases: []string{"s"},
	Usage:   "Head store directory (overrides store.path)",
}

func newHeadsCommands(e *env) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "heads",
			Usage:     "List headers recorded by subscribe --store",
			UsageText: "heads [--store <dir>] [--from <n>] [--to <n>] [--best] [--full]",
			Flags: []cli.Flag{
				storeFlag,
				&cli.Uint64Flag{
					Name:  "from",
					Usage: "First block number to list",
				},
				&cli.Uint64Flag{
					Name:  "to",
					Usage: "List blocks below this number",
				},
				&cli.BoolFlag{
					Name:  "best",
					Usage: "Print only the most recently recorded head",
				},
				&cli.BoolFlag{
					Name:  "full",
					Usage: "Print hashes in full",
				},
			},
			Action: e.handleHeads,
		},
	}
}

func (e *env) handleHeads(ctx *cli.Context) error {
	path := e.cfg.Store.Path
	if ctx.IsSet("store") {
		path = ctx.String("store")
	}
	if path == "" {
		return errNoStore
	}

	kv, err := pebble.Open(path)
	if err != nil {
		return fmt.Errorf("opening head store: %w", err)
	}
	defer kv.Close()

	bits := shortHashBits
	if ctx.Bool("full") {
		bits = -1
	}
	printHead := func(h rpc.Header) error {
		number, err := h.BlockNumber()
		if err != nil {
			return err
		}
		parent, err := hexutil.Decode(h.ParentHash)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "#%s parent=%s logs=%d\n",
			number, hexutil.EncodeWith(parent, bits, true), len(h.Digest.Logs))
		return nil
	}

	heads := headstore.New(kv)
	if ctx.Bool("best") {
		h, err := heads.Best()
		if err != nil {
			return err
		}
		return printHead(h)
	}

	var from, to *big.Int
	if ctx.IsSet("from") {
		from = new(big.Int).SetUint64(ctx.Uint64("from"))
	}
	if ctx.IsSet("to") {
		to = new(big.Int).SetUint64(ctx.Uint64("to"))
	}

	return heads.Range(from, to, printHead)
}
