package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	installPrefix string
	installReset  bool
	configPath    string
	backendName   string

	mainCmd = &cobra.Command{
		Use:   "presscount",
		Short: "Count button presses on GPIO, reset on a second button",
	}
	runCmd = &cobra.Command{
		Use: "run",
		Run: runCounter,
	}
	installCmd = &cobra.Command{
		Use: "install",
		Run: runInstall,
	}
)

func runInstall(cmd *cobra.Command, args []string) {
	err := install(installPrefix, installReset)
	if err != nil {
		log.Fatalln("install:", err)
	}
}

func loadConfig() *Config {
	c, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalln("load config:", err)
	}
	if backendName != "" {
		c.Backend = backendName
	}
	err = c.Validate()
	if err != nil {
		log.Fatalln(err)
	}
	c.SetupLogging()
	return c
}

func runCounter(cmd *cobra.Command, args []string) {
	c := loadConfig()

	b, err := openBoard(c)
	if err != nil {
		log.Fatalf("open %s board: %s", c.Backend, err.Error())
	}
	defer b.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var console io.Reader
	if c.Backend == "sim" {
		console = os.Stdin
	}
	var count Counter
	err = run(ctx, c, b, &count, console)
	if err != nil {
		log.Fatalln("run:", err)
	}
	log.WithField("Count", count.Load()).Infoln("stopped")
}

// run configures the pins on b, starts the reset watcher and counts
// until ctx is done or a pin operation fails. console, when set and b is
// a SimBoard, feeds simulated button commands.
func run(ctx context.Context, c *Config, b Board, count *Counter, console io.Reader) error {
	light, err := b.Output(c.Light)
	if err != nil {
		return err
	}
	light = loggedOutput{Output: light, light: c.Light}

	var loop interface {
		Run(context.Context) error
	}
	if c.Mode == ModeTimer {
		loop = &TimerCounter{
			Light:    light,
			Counter:  count,
			Interval: c.TimerInterval(),
			Pulse:    c.Debounce(),
		}
	} else {
		btn, err := b.Input(c.Button)
		if err != nil {
			return err
		}
		loop = &Presser{
			Button:       btn,
			Light:        light,
			Counter:      count,
			Debounce:     c.Debounce(),
			PollInterval: c.PollInterval(),
		}
	}

	r := &Resetter{Switch: c.Reset, Counter: count}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.WatchPress(ctx, c.Reset, r.Handle)
	})
	if sim, ok := b.(*SimBoard); ok && console != nil {
		g.Go(func() error {
			return sim.Console(ctx, console, c)
		})
	}

	log.WithFields(log.Fields{
		"Backend": c.Backend,
		"Mode":    c.Mode,
	}).Infoln("started")

	g.Go(func() error {
		return loop.Run(ctx)
	})
	return g.Wait()
}

func main() {
	installCmd.Flags().BoolVar(&installReset, "reset", false, "Reset config. Resets configuration to default, even if a config file already exists")
	installCmd.Flags().StringVarP(&installPrefix, "prefix", "p", "", "Install prefix. Prefix to install directory, default is /")
	runCmd.Flags().StringVarP(&backendName, "backend", "b", "", "GPIO backend. Overrides Backend from the config file")
	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/presscount.conf", "Config path. The path to the configuration file")
	mainCmd.AddCommand(runCmd, installCmd)
	mainCmd.Execute()
}
