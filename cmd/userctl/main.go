package main

import (
	"context"
	"log"
	"os"

	"github.com/avolkovs/imgboard/internal/buildinfo"
	"github.com/avolkovs/imgboard/internal/cli"
	"github.com/avolkovs/imgboard/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
