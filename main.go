package main

import (
	"log/slog"
	"os"

	"img2epd/convert"

	"github.com/alecthomas/kong"
)

func main() {
	var cmd convert.CLICmd

	parser, err := kong.New(&cmd, convert.Options()...)
	if err != nil {
		slog.Error("could not build command line parser", "error", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err = kctx.Run(slog.Default()); err != nil {
		slog.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}
