package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error

	switch command {
	case "status":
		err = c.runStatus(ctx)
	case "health":
		err = c.runHealth(ctx)
	case "slots":
		err = c.runSlots(ctx)
	case "create":
		err = c.runCreate(ctx)
	case "login":
		err = c.runLogin(ctx, args)
	case "logout":
		err = c.runLogout(ctx)
	case "count":
		err = c.runCount(ctx, args)
	case "export":
		err = c.runExport(ctx)
	case "import":
		err = c.runImport(ctx, args)
	case "clear":
		err = c.runClear(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
