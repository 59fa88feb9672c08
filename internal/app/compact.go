package app

import (
	"fmt"
	"math/big"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/polkadot-util/pkg/serialization"
	"github.com/eigerco/polkadot-util/pkg/serialization/codec"
	"github.com/eigerco/polkadot-util/pkg/serialization/codec/compact"
	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
)

var codecFlag = &cli.StringFlag{
	Name:  "codec",
	Usage: "Wire format: scale or json",
	Value: "scale",
}

func newCompactCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "compact",
			Usage: "SCALE compact integer helpers",
			Subcommands: []*cli.Command{
				{
					Name:      "encode",
					Usage:     "Encode an unsigned decimal integer",
					UsageText: "encode [--codec scale|json] <uint>",
					Flags:     []cli.Flag{codecFlag},
					Action:    handleCompactEncode,
				},
				{
					Name:      "decode",
					Usage:     "Decode a compact integer from the front of hex input",
					UsageText: "decode [--codec scale|json] [--max-bits <n>] <hex>",
					Flags: []cli.Flag{
						codecFlag,
						&cli.IntFlag{
							Name:  "max-bits",
							Usage: "Reject values wider than this many bits (scale only, 0 for unbounded)",
						},
					},
					Action: handleCompactDecode,
				},
				{
					Name:      "add-length",
					Usage:     "Prefix hex input with its compact-encoded length",
					UsageText: "add-length <hex>",
					Action:    handleAddLength,
				},
				{
					Name:      "strip-length",
					Usage:     "Remove the compact length prefix from hex input",
					UsageText: "strip-length <hex>",
					Action:    handleStripLength,
				},
			},
		},
	}
}

func serializerFor(name string) (*serialization.Serializer, error) {
	switch name {
	case "", "scale":
		return serialization.NewSerializer(&codec.SCALECodec{}), nil
	case "json":
		return serialization.NewSerializer(&codec.JSONCodec{}), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func hexArgument(ctx *cli.Context) ([]byte, error) {
	if !ctx.Args().Present() {
		return nil, errMissingArgument
	}
	return hexutil.Decode(ctx.Args().First())
}

func handleCompactEncode(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return errMissingArgument
	}
	v, ok := new(big.Int).SetString(ctx.Args().First(), 10)
	if !ok {
		return fmt.Errorf("not a decimal integer: %q", ctx.Args().First())
	}
	s, err := serializerFor(ctx.String("codec"))
	if err != nil {
		return err
	}
	out, err := s.EncodeCompact(v)
	if err != nil {
		return err
	}
	if ctx.String("codec") == "json" {
		fmt.Fprintln(ctx.App.Writer, string(out))
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(out))
	return nil
}

func handleCompactDecode(ctx *cli.Context) error {
	if ctx.String("codec") == "json" {
		if !ctx.Args().Present() {
			return errMissingArgument
		}
		s := serialization.NewSerializer(&codec.JSONCodec{})
		v, n, err := s.DecodeCompact([]byte(ctx.Args().First()))
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%s (%d bytes)\n", v, n)
		return nil
	}

	input, err := hexArgument(ctx)
	if err != nil {
		return err
	}
	if maxBits := ctx.Int("max-bits"); maxBits > 0 {
		n, v, err := compact.DecodeBits(input, maxBits)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%s (%d bytes)\n", v, n)
		return nil
	}

	s, err := serializerFor(ctx.String("codec"))
	if err != nil {
		return err
	}
	v, n, err := s.DecodeCompact(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s (%d bytes)\n", v, n)
	return nil
}

func handleAddLength(ctx *cli.Context) error {
	input, err := hexArgument(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(compact.AddLength(input)))
	return nil
}

func handleStripLength(ctx *cli.Context) error {
	input, err := hexArgument(ctx)
	if err != nil {
		return err
	}
	n, payload, err := compact.StripLength(input)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(payload))
	if rest := len(input) - n; rest > 0 {
		fmt.Fprintf(ctx.App.ErrWriter, "%d trailing bytes ignored\n", rest)
	}
	return nil
}
