package main

import (
	"github.com/alecthomas/kong"

	"github.com/pageza/foodgram/backend/internal/cmd"
)

var cli struct {
	Debug bool `help:"Enable debug mode"`

	Load cmd.SeedCmd `cmd:"" default:"1" help:"Load tags, ingredients and demo users"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Name("foodgram-seed"), kong.Description("Loads catalog data and demo users."))
	err := ctx.Run(&cmd.Context{Debug: cli.Debug})
	ctx.FatalIfErrorf(err)
}
