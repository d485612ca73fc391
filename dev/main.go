// Command dev prepares dev/.state for local crawls and the live tests.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
)

type step struct {
	name string
	run  func() error
}

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return errors.New("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	if recreate {
		slog.Info("removing existing dev state")
		err = os.RemoveAll("dev/.state")
		if err != nil {
			return err
		}
	}

	steps := []step{
		{name: "page cache", run: CreatePageCache},
		{name: "config templates", run: WriteConfigTemplates},
	}
	for _, s := range steps {
		err := s.run()
		if err != nil {
			slog.Error("dev setup step failed", "step", s.name)
			return err
		}
	}
	PrintConfigLocations()
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}
	slog.Info("dev environment is ready")
}
