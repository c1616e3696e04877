// Command netusage adds up a month of internet data usage across devices.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"dictator/usage"
)

func main() {
	noAuto := flag.Bool("noauto", false, "Never offer to read this machine's network counters")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	usage.Banner(os.Stdout)

	calc := &usage.Calculator{
		Prompt: usage.NewPrompter(os.Stdin, os.Stdout),
		Out:    os.Stdout,
	}
	if !*noAuto {
		p, err := usage.DetectPlatform(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v. Auto-fetch will be disabled.\n", err)
		} else {
			calc.Platform = p
			calc.Counter = usage.SystemCounter{}
		}
	}

	rep, err := calc.Run(ctx, usage.Devices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		os.Exit(1)
	}
	usage.Render(os.Stdout, rep)
}
