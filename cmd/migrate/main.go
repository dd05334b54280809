package main

import (
	"github.com/alecthomas/kong"

	"github.com/pageza/foodgram/backend/internal/cmd"
)

var cli struct {
	Debug bool `help:"Enable debug mode"`

	Up   cmd.MigrateUpCmd   `cmd:"" default:"1" help:"Apply all pending migrations"`
	Down cmd.MigrateDownCmd `cmd:"" help:"Roll back migrations"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Name("foodgram-migrate"), kong.Description("Foodgram schema migrations."))
	err := ctx.Run(&cmd.Context{Debug: cli.Debug})
	ctx.FatalIfErrorf(err)
}
