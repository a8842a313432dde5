package main

import (
	"context"
	"os"

	"github.com/proofdrop-lab/backend/pkg/logger"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

var server srv

func main() {
	server.ctx = xcontext.WithLogger(context.Background(), logger.NewLogger())
	server.loadConfig()

	app := cli.NewApp()
	app.Name = "proofdrop"
	app.Usage = "Proof-of-personhood reward distribution service"
	app.Commands = []*cli.Command{
		{
			Action: server.startApi,
			Name:   "api",
			Usage:  "Start the api server",
		},
		{
			Action: server.startCron,
			Name:   "cron",
			Usage:  "Start the cron jobs, including the claim reconciler",
		},
		{
			Action: server.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate the database and seed the supported chains",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "chains",
					Usage: "Path to the toml file of supported chains",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		panic(err)
	}
}
