package main

import (
	"context"

	"edgar13f/cmd/edgar13f/commands"
	"edgar13f/lib/osutil"
)

func main() {
	ctx, stop := osutil.SignalContext(context.Background())
	defer stop()
	commands.ExecuteContext(ctx)
}
