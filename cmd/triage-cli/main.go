package main

import (
	"errors"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/mikey/llm-mail-triage/internal/di"
	"github.com/spf13/pflag"
)

const usageHeader = `Usage: triage-cli [flags] <command> [args]

Commands:
  run                            Process one batch of unread mail
  followups [--threshold N]      Send follow-ups for quotes older than N days
  complaints [--open]            List logged complaints
  close-complaint <index>        Close an open complaint
  quotes                         List sent quotes
  history <customer> [--limit N] Show a customer's conversation history
  clear-history [customer]       Clear one customer's history, or all
  search [query]                 Search the product catalog
  price <product>                Show the price of a product
  authorize <gmail|calendar>     Create the Google OAuth token file

Flags:
`

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Print(usageHeader + flags.Usage())
		return
	}
	if errors.Is(err, di.ErrNoCommand) {
		fmt.Fprint(os.Stderr, usageHeader+flags.Usage())
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cmd, ok := commands[flags.Command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", flags.Command, usageHeader+flags.Usage())
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := cmd(container, flags.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
