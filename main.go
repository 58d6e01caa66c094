package main

import (
	"github.com/alecthomas/kong"

	"droscher.com/DramGargoyle/cmd"
)

func main() {
	ctx := kong.Parse(&cmd.CLI, kong.Name("Dram Gargoyle"), kong.Description("DramGargoyle is a whiskey collection management tool."))
	err := ctx.Run(&cmd.Context{Debug: cmd.CLI.Debug})
	ctx.FatalIfErrorf(err)
}
