package main

import (
	"context"
	"os"
	"os/signal"

	"bennypowers.dev/scssc/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code, err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Error("%v", err)
	}
	stop()
	os.Exit(code)
}
