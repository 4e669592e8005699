package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aryankumar/taskpool/internal/cli"
	"github.com/aryankumar/taskpool/internal/util"
)

func main() {
	// First signal drains running tasks, the second exits immediately
	ctx := util.SetupSignalHandler()

	if err := cli.Execute(ctx); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", cli.ErrorMessage(err))
		os.Exit(cli.ExitCode(err))
	}
}
