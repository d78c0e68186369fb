package main

import (
	"context"
	"log"
	"os"

	"github.com/kachery/gateway/internal/buildinfo"
	"github.com/kachery/gateway/internal/client/cli"
	"github.com/kachery/gateway/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}
