package main

import (
	"context"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	charm := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "orgv",
		Level:           charmlog.InfoLevel,
	})
	logger := slog.New(charm)
	slog.SetDefault(logger)

	cmd := &cli.Command{
		Name:  "orgv-console",
		Usage: "terminal console for the OrgV identity platform",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "API gateway base URL (overrides ORGV_HTTP_BASE_URL)",
			},
			&cli.StringFlag{
				Name:  "state-dir",
				Usage: "profile state directory (overrides ORGV_DEVICE_STATE_DIR)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				charm.SetLevel(charmlog.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			loginCommand(),
			whoamiCommand(),
			devicesCommand(),
			logoutCommand(),
			registerCommand(),
			passwdCommand(),
			forgotPasswordCommand(),
			mfaCommand(),
			emailCommand(),
			accountCommand(),
			adminCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
