package main

import (
	"errors"
	"os"

	"github.com/sungazer-io/swarm-cli/pkg/cli"
	"github.com/sungazer-io/swarm-cli/pkg/docker/command"
	"github.com/sungazer-io/swarm-cli/pkg/util/console"
)

func main() {
	cmd, err := cli.NewRootCommand()
	if err != nil {
		console.Fatalf("%s", err)
	}

	if err = cmd.Execute(); err != nil {
		// a failed docker or docker-compose keeps its own exit code
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		console.Fatalf("%s", err)
	}
}
