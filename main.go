package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsphweid/midistates/cmd"
	"github.com/jsphweid/midistates/file"
	"github.com/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.Is(err, file.ErrDataFolderNotFound) {
		os.Exit(2)
	}
	os.Exit(1)
}
