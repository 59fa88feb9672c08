package app

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/eigerco/polkadot-util/pkg/log"
	"github.com/eigerco/polkadot-util/pkg/serialization/codec/compact"
	"github.com/eigerco/polkadot-util/pkg/util/bn"
	"github.com/eigerco/polkadot-util/pkg/util/hexutil"
	"github.com/eigerco/polkadot-util/pkg/util/u8a"
)

var errMissingArgument = errors.New("missing argument")

var bitsFlag = &cli.IntFlag{
	Name:    "bits",
	Aliases: []string{"b"},
	Usage:   "Bit length to pad hex output to (0 for minimal)",
}

func newConvertCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "convert",
			Usage: "Convert provided arguments into other possible formats",
			UsageText: `convert [--bits <n>] <arg>...

<arg> is interpreted by its shape: 0x-prefixed hex is shown as big- and
        little-endian integers and as text, decimal integers as hex and SCALE
        compact, anything else as the hex of its UTF-8 bytes.`,
			Flags:  []cli.Flag{bitsFlag},
			Action: handleConvert,
		},
	}
}

func handleConvert(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return errMissingArgument
	}
	bits := ctx.Int("bits")
	for i, arg := range ctx.Args().Slice() {
		if i > 0 {
			fmt.Fprintln(ctx.App.Writer)
		}
		if err := convert(ctx.App.Writer, arg, bits); err != nil {
			return fmt.Errorf("convert %q: %w", arg, err)
		}
	}
	return nil
}

func convert(w io.Writer, arg string, bits int) error {
	if v, ok := new(big.Int).SetString(arg, 10); ok {
		log.Codec.Debug().Str("input", arg).Msg("decimal integer")
		return convertInteger(w, v, bits)
	}

	src := u8a.FromString(arg)
	b, err := u8a.ToBytes(src)
	if err != nil {
		return err
	}
	if _, ok := src.(u8a.Hex); ok {
		log.Codec.Debug().Str("input", arg).Int("bytes", len(b)).Msg("hex input")
		return convertHex(w, b)
	}

	log.Codec.Debug().Str("input", arg).Msg("text input")
	fmt.Fprintf(w, "hex:       %s\n", hexutil.EncodeWith(b, bits, true))
	return nil
}

func convertInteger(w io.Writer, v *big.Int, bits int) error {
	be, err := bn.UintToHex(v, bn.Options{BitLength: bits})
	if err != nil {
		return err
	}
	le, err := bn.UintToHex(v, bn.Options{LittleEndian: true, BitLength: bits})
	if err != nil {
		return err
	}
	enc, err := compact.Encode(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "hex (BE):  %s\n", be)
	fmt.Fprintf(w, "hex (LE):  %s\n", le)
	fmt.Fprintf(w, "compact:   %s\n", hexutil.Encode(enc))
	return nil
}

func convertHex(w io.Writer, b []byte) error {
	be, err := bn.BytesToUint(b, bn.Options{})
	if err != nil {
		return err
	}
	le, err := bn.BytesToUint(b, bn.LE)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "uint (BE): %s\n", be)
	fmt.Fprintf(w, "uint (LE): %s\n", le)
	fmt.Fprintf(w, "text:      %s\n", strconv.Quote(u8a.BytesToText(b)))
	return nil
}
