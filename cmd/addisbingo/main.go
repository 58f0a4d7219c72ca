package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the bingo session server"`
	Client  ClientCmd        `cmd:"" help:"Connect as an interactive player"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("addisbingo"),
		kong.Description("Real-time multiplayer bingo session server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
