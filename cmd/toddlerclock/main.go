package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"toddlerclock/internal/battery"
	"toddlerclock/internal/config"
	"toddlerclock/internal/display"
	"toddlerclock/internal/ics"
	appLog "toddlerclock/internal/log"
	"toddlerclock/internal/render"
	"toddlerclock/internal/schedule"
	"toddlerclock/internal/web"
)

const version = "0.1.0"

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		appLog.Error("toddlerclock failed", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "toddlerclock",
		Usage:          "A clock that tells a small child whether it is time to get up.",
		Version:        version,
		DefaultCommand: "run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "/etc/toddlerclock/config.yaml",
				Usage:   "Path to config file",
				EnvVars: []string{"TODDLERCLOCK_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			renderCommand(),
			showCommand(),
			icsCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	return conf, nil
}

func newRenderer(conf *config.Config) (*render.Renderer, error) {
	opts, err := render.OptionsFromConfig(conf.Display)
	if err != nil {
		return nil, err
	}
	return render.New(opts)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Show the clock and keep it up to date.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)", EnvVars: []string{"TODDLERCLOCK_LISTEN"}},
			&cli.BoolFlag{Name: "once", Usage: "Draw one frame and exit"},
			&cli.BoolFlag{Name: "render-only", Usage: "Write frames to the preview PNG; do not touch display hardware"},
			&cli.BoolFlag{Name: "dump", Usage: "Also write every frame to the preview PNG"},
		},
		Action: func(c *cli.Context) error {
			appLog.Info("toddlerclock starting", "version", version)

			conf, err := loadConfig(c)
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				conf.Listen = l
			}
			if c.Bool("render-only") {
				conf.Display.Driver = "png"
			}

			appLog.Info("effective config",
				"listen", conf.Listen,
				"refresh", conf.RefreshCron,
				"driver", conf.Display.Driver,
				"size", fmt.Sprintf("%dx%d", conf.Display.Width, conf.Display.Height),
				"battery", conf.Battery.Enabled,
				"once", c.Bool("once"),
			)

			return runClock(c.Context, conf, c.Bool("once"), c.Bool("dump"))
		},
	}
}

func runClock(ctx context.Context, conf *config.Config, once, dump bool) error {
	sched := buildSchedule(time.Now)
	for _, sp := range sched.Spans() {
		appLog.Debug("scheduled", "from", schedule.FormatMinute(sp.Start), "to", schedule.FormatMinute(sp.Stop), "message", sp.Description)
	}

	rend, err := newRenderer(conf)
	if err != nil {
		return err
	}

	sink, err := display.Open(ctx, conf.Display, dump)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			appLog.Error("display close failed", err)
		}
	}()

	clk := &clock{
		sched: sched,
		rend:  rend,
		sink:  sink,
		bat:   battery.FromConfig(ctx, conf.Battery),
		now:   time.Now,
	}

	// Draw right away rather than waiting for the first tick.
	if err := clk.tick(ctx); err != nil {
		return err
	}
	if once {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return clk.run(gctx, conf.RefreshCron)
	})
	if conf.Listen != "" {
		srv := web.NewServer(conf, sched, clk.bat)
		g.Go(func() error {
			return srv.Serve(gctx)
		})
	}

	err = g.Wait()
	appLog.Info("toddlerclock exiting")
	return err
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Write a single frame as PNG.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "at", Usage: "Time of day to render as HH:MM (default: now)"},
			&cli.StringFlag{Name: "out", Value: "preview.png", Usage: "Output PNG path"},
		},
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}

			now := time.Now()
			if at := c.String("at"); at != "" {
				t, err := time.ParseInLocation("15:04", at, time.Local)
				if err != nil {
					return fmt.Errorf("bad --at %q: %w", at, err)
				}
				now = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
			}

			rend, err := newRenderer(conf)
			if err != nil {
				return err
			}
			sched := buildSchedule(func() time.Time { return now })

			out := display.NewPNG(c.String("out"))
			if err := out.Show(rend.Frame(now, sched.Current(), nil)); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s\n", out.Path())
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the resolved daily schedule.",
		Action: func(c *cli.Context) error {
			sched := buildSchedule(time.Now)
			for _, sp := range sched.Spans() {
				fmt.Fprintf(c.App.Writer, "%s-%s  %s\n", schedule.FormatMinute(sp.Start), schedule.FormatMinute(sp.Stop), sp.Description)
			}
			return nil
		},
	}
}

func icsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ics",
		Usage: "Print the daily schedule as an iCalendar feed.",
		Action: func(c *cli.Context) error {
			body, err := ics.Export(buildSchedule(time.Now).Spans(), time.Now(), time.Local)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.App.Writer, body)
			return err
		},
	}
}
