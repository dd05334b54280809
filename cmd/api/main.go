package main

import (
	"github.com/alecthomas/kong"

	"github.com/pageza/foodgram/backend/internal/cmd"
)

var cli struct {
	Debug bool `help:"Enable debug mode"`

	Serve   cmd.ServeCmd   `cmd:"" default:"1" help:"Run the API server"`
	Migrate cmd.MigrateCmd `cmd:"" help:"Run database migrations"`
	Seed    cmd.SeedCmd    `cmd:"" help:"Load tags, ingredients and demo users"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Name("foodgram"), kong.Description("Foodgram recipe sharing API."))
	err := ctx.Run(&cmd.Context{Debug: cli.Debug})
	ctx.FatalIfErrorf(err)
}
