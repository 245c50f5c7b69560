// Package cli implements the japakeeper console commands.
package cli

import (
	"fmt"

	"github.com/iudanet/japakeeper/internal/accounts"
	"github.com/iudanet/japakeeper/internal/device"
	"github.com/iudanet/japakeeper/internal/iocli"
	"github.com/iudanet/japakeeper/internal/storage"
)

type Cli struct {
	io       iocli.IO
	devices  *device.Manager
	accounts *accounts.Service
	rep      *storage.Replicator
}

func New(io iocli.IO, devices *device.Manager, svc *accounts.Service, rep *storage.Replicator) *Cli {
	return &Cli{
		io:       io,
		devices:  devices,
		accounts: svc,
		rep:      rep,
	}
}

func PrintUsage() {
	fmt.Println("JapaKeeper: mantra practice keeper")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  japakeeper [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version             Show version information")
	fmt.Println("  --data PATH           Data directory (default: ~/.japakeeper)")
	fmt.Println("  --redis ADDR          Redis address for the cache layer (optional)")
	fmt.Println("  --resync DURATION     Device identity resync interval (default: 5m)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  status                Show device identity and storage layer status")
	fmt.Println("  health                Probe every storage layer")
	fmt.Println("  slots                 List account slots")
	fmt.Println("  create                Create a new account in a free slot")
	fmt.Println("  login <slot>          Authenticate into a slot")
	fmt.Println("  logout                Clear the active session")
	fmt.Println("  count [n]             Record chanted rounds for the active account")
	fmt.Println("  export                Export the active account (JSON bundle and SE_ id)")
	fmt.Println("  import <SE_id|file>   Import an account into a free slot")
	fmt.Println("  clear <slot>          Remove the account stored in a slot")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  japakeeper create")
	fmt.Println("  japakeeper login 1")
	fmt.Println("  japakeeper count 4")
	fmt.Println("  japakeeper export")
	fmt.Println("  japakeeper import SE_eyJpZCI6...")
}
