package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"example.com/inviter/internal/app"
	"example.com/inviter/internal/console"
)

const version = "1.2.0"

const banner = `------------------------------------------------------------------------------
            ╦═╗┌─┐┌┬┐┌─┐┌┬┐┌─┐  ╔═╗┬  ┌─┐┬ ┬  ╦┌┐┌┬  ┬┬┌┬┐┌─┐┬─┐
            ╠╦╝├┤ ││││ │ │ ├┤   ╠═╝│  ├─┤└┬┘  ║│││└┐┌┘│ │ ├┤ ├┬┘
            ╩╚═└─┘┴ ┴└─┘ ┴ └─┘  ╩  ┴─┘┴ ┴ ┴   ╩┘└┘ └┘ ┴ ┴ └─┘┴└─
               Version: %s

    Invite your friends via Discord and play Steam games together for free!
------------------------------------------------------------------------------
`

func main() {
	root := &cobra.Command{
		Use:           "inviter",
		Short:         "Keeps a connection to the relay server and issues Steam Remote Play invites",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.SetVersionTemplate("✓ Version: {{.Version}}\n")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "☓", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	con := console.New()
	if err := con.Block(fmt.Sprintf(banner, version)); err != nil {
		return err
	}

	// диагностика идёт через ту же консоль, чтобы не ломать статусную строку
	level := zerolog.InfoLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if l, err := zerolog.ParseLevel(s); err == nil {
			level = l
		}
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: con.Writer(true)}).
		Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, con, version); err != nil {
		return err
	}

	// и после фатального старта, и после запрошенного сервером выхода —
	// даём оператору прочитать экран
	if err := con.Println("□ Press Ctrl+C to exit..."); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
