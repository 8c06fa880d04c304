package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ectotools/ectolink/internal/boiler"
	"github.com/ectotools/ectolink/internal/config"
	"github.com/ectotools/ectolink/internal/poller"
	"github.com/ectotools/ectolink/internal/transport"
)

var (
	cfgFile   string
	flagPort  string
	flagSlave int
	flagDebug bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ectolink",
	Short: "Poll and command an ectocontrol boiler adapter over Modbus RTU",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if flagDebug {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("logger init: %w", err)
		}

		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		// CLI overrides beat the file.
		if flagPort != "" {
			cfg.Link.Port = flagPort
		}
		if flagSlave > 0 {
			cfg.Link.SlaveID = uint8(flagSlave)
		}

		if err := config.Validate(cfg); err != nil {
			return err
		}
		config.Normalize(cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ectolink.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagPort, "port", "", "serial port override")
	rootCmd.PersistentFlags().IntVar(&flagSlave, "slave", 0, "slave address override")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging")

	setCmd.AddCommand(setCHSetpointCmd, setDHWSetpointCmd, setCHMinCmd, setCHMaxCmd, setMaxModulationCmd)
	enableCmd.Flags().BoolVar(&flagOff, "off", false, "disable instead of enable")
	rootCmd.AddCommand(runCmd, readCmd, setCmd, enableCmd, rebootCmd, resetErrorsCmd)
}

// ---- STACK WIRING ----

func buildStack() (*transport.Transport, *poller.Poller, *boiler.Gateway, error) {
	tr := transport.New(transport.Config{
		Port:     cfg.Link.Port,
		BaudRate: cfg.Link.BaudRate,
		Timeout:  cfg.Link.Timeout(),
	}, logger)

	p, err := poller.New(poller.Config{
		Slave:       cfg.Link.SlaveID,
		Interval:    cfg.Poll.Interval(),
		Retries:     cfg.Poll.Retries,
		Backoff:     cfg.Poll.Backoff(),
		ReadTimeout: cfg.Poll.ReadTimeout(),
	}, tr, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	gw := boiler.New(tr, cfg.Link.SlaveID, p.Snapshot, logger)
	return tr, p, gw, nil
}

// withStack connects, runs fn against the live stack, and disconnects.
func withStack(fn func(*poller.Poller, *boiler.Gateway) error) error {
	tr, p, gw, err := buildStack()
	if err != nil {
		return err
	}
	if err := tr.Connect(); err != nil {
		return err
	}
	defer tr.Close()

	return fn(p, gw)
}

// withGateway runs a command fn, then refreshes the snapshot so the outcome
// of the command is immediately visible.
func withGateway(fn func(*boiler.Gateway) error) error {
	return withStack(func(p *poller.Poller, gw *boiler.Gateway) error {
		if err := fn(gw); err != nil {
			return err
		}
		if _, err := p.PollOnce(context.Background()); err != nil {
			logger.Warn("post-command refresh failed", zap.Error(err))
		}
		return nil
	})
}

// readOnce refreshes the snapshot and then prints the decoded readings. The
// poll comes first so the output reflects the device, not an empty cache.
func readOnce(ctx context.Context, p *poller.Poller, gw *boiler.Gateway, w io.Writer) error {
	if _, err := p.PollOnce(ctx); err != nil {
		return err
	}
	printReadings(w, gw)

	if lim, err := gw.ReadLimits(); err == nil {
		printLimits(w, lim)
	} else {
		logger.Warn("limit block read failed", zap.Error(err))
	}
	return nil
}

// ---- COMMANDS ----

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the adapter on a fixed interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, p, gw, err := buildStack()
		if err != nil {
			return err
		}
		if err := tr.Connect(); err != nil {
			return err
		}
		defer tr.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("polling started",
			zap.String("port", cfg.Link.Port),
			zap.Uint8("slave", cfg.Link.SlaveID),
			zap.Duration("interval", cfg.Poll.Interval()),
		)

		if uid := gw.DeviceUIDHex(); uid != "" {
			logger.Info("adapter identified", zap.String("uid", uid))
		}

		// First refresh before steady-state ticking.
		if _, err := p.PollOnce(ctx); err == nil {
			logReadings(gw)
		}

		out := make(chan poller.Result, 1)
		go p.Run(ctx, out)

		for {
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				return nil
			case res := <-out:
				if res.Err != nil {
					continue // the poller already logged the failure
				}
				logReadings(gw)
			}
		}
	},
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Perform one poll cycle and print the decoded readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(func(p *poller.Poller, gw *boiler.Gateway) error {
			return readOnce(cmd.Context(), p, gw, os.Stdout)
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Write a setpoint or limit register",
}

var setCHSetpointCmd = &cobra.Command{
	Use:   "ch-setpoint <degC>",
	Short: "Write the central-heating setpoint (1/256 degC resolution)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deg, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad setpoint %q: %w", args[0], err)
		}
		return withGateway(func(gw *boiler.Gateway) error {
			return gw.SetCHSetpoint(deg)
		})
	},
}

var setDHWSetpointCmd = &cobra.Command{
	Use:   "dhw-setpoint <degC>",
	Short: "Write the hot-water setpoint (whole degrees)",
	Args:  cobra.ExactArgs(1),
	RunE:  intSetter(func(gw *boiler.Gateway, v int) error { return gw.SetDHWSetpoint(v) }),
}

var setCHMinCmd = &cobra.Command{
	Use:   "ch-min <degC>",
	Short: "Write the lower heating setpoint limit",
	Args:  cobra.ExactArgs(1),
	RunE:  intSetter(func(gw *boiler.Gateway, v int) error { return gw.SetCHMinLimit(v) }),
}

var setCHMaxCmd = &cobra.Command{
	Use:   "ch-max <degC>",
	Short: "Write the upper heating setpoint limit",
	Args:  cobra.ExactArgs(1),
	RunE:  intSetter(func(gw *boiler.Gateway, v int) error { return gw.SetCHMaxLimit(v) }),
}

var setMaxModulationCmd = &cobra.Command{
	Use:   "max-modulation <percent>",
	Short: "Cap the burner modulation level",
	Args:  cobra.ExactArgs(1),
	RunE:  intSetter(func(gw *boiler.Gateway, v int) error { return gw.SetMaxModulation(v) }),
}

var flagOff bool

var enableCmd = &cobra.Command{
	Use:       "enable <heating|dhw>",
	Short:     "Enable or disable a circuit (use --off to disable)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"heating", "dhw"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(gw *boiler.Gateway) error {
			switch args[0] {
			case "heating":
				return gw.SetHeatingEnabled(!flagOff)
			case "dhw":
				return gw.SetDHWEnabled(!flagOff)
			default:
				return fmt.Errorf("unknown circuit %q", args[0])
			}
		})
	},
}

var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(gw *boiler.Gateway) error {
			if err := gw.RebootAdapter(); err != nil {
				return err
			}
			reportCommandResult(gw)
			return nil
		})
	},
}

var resetErrorsCmd = &cobra.Command{
	Use:   "reset-errors",
	Short: "Clear latched boiler faults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(gw *boiler.Gateway) error {
			if err := gw.ResetBoilerErrors(); err != nil {
				return err
			}
			reportCommandResult(gw)
			return nil
		})
	},
}

// ---- OUTPUT HELPERS ----

func intSetter(set func(*boiler.Gateway, int) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad value %q: %w", args[0], err)
		}
		return withGateway(func(gw *boiler.Gateway) error {
			return set(gw, v)
		})
	}
}

func reportCommandResult(gw *boiler.Gateway) {
	res, err := gw.CommandResult()
	if err != nil {
		logger.Warn("command result read failed", zap.Error(err))
		return
	}
	logger.Info("command acknowledged", zap.Uint16("result", res))
}

func logReadings(gw *boiler.Gateway) {
	logger.Info("readings",
		zap.String("ch_temp", fmtVal(gw.CHTemperature)),
		zap.String("dhw_temp", fmtVal(gw.DHWTemperature)),
		zap.String("pressure", fmtVal(gw.Pressure)),
		zap.String("modulation", fmtVal(func() (float64, bool) {
			v, ok := gw.ModulationLevel()
			return float64(v), ok
		})),
		zap.String("active_setpoint", fmtVal(gw.ActiveCHSetpoint)),
		zap.String("burner", fmtFlag(gw.BurnerOn)),
		zap.String("heating", fmtFlag(gw.HeatingEnabled)),
		zap.String("dhw", fmtFlag(gw.DHWEnabled)),
		zap.String("main_error", fmtCode(gw.MainError)),
	)
}

func printReadings(w io.Writer, gw *boiler.Gateway) {
	show := func(name, val string) { fmt.Fprintf(w, "%-24s %s\n", name, val) }

	show("CH temperature", fmtVal(gw.CHTemperature))
	show("DHW temperature", fmtVal(gw.DHWTemperature))
	show("Pressure", fmtVal(gw.Pressure))
	show("Flow rate", fmtVal(gw.FlowRate))
	show("Modulation", fmtVal(func() (float64, bool) {
		v, ok := gw.ModulationLevel()
		return float64(v), ok
	}))
	show("Outdoor temperature", fmtVal(func() (float64, bool) {
		v, ok := gw.OutdoorTemperature()
		return float64(v), ok
	}))
	show("Active CH setpoint", fmtVal(gw.ActiveCHSetpoint))
	show("Burner", fmtFlag(gw.BurnerOn))
	show("Heating enabled", fmtFlag(gw.HeatingEnabled))
	show("DHW enabled", fmtFlag(gw.DHWEnabled))
	show("Main error", fmtCode(gw.MainError))
	show("Additional error", fmtCode(gw.AdditionalError))
	show("OpenTherm error", fmtCode(gw.OTError))
	show("Manufacturer code", fmtCode(gw.ManufacturerCode))
	show("Model code", fmtCode(gw.ModelCode))

	if major, minor, ok := gw.FirmwareVersion(); ok {
		show("Firmware", fmt.Sprintf("%d.%d", major, minor))
	}
	if uid := gw.DeviceUIDHex(); uid != "" {
		show("Device UID", uid)
	}
}

func printLimits(w io.Writer, lim *boiler.Limits) {
	fmt.Fprintf(w, "%-24s %.2f\n", "CH setpoint (written)", lim.CHSetpoint)
	fmt.Fprintf(w, "%-24s %d..%d\n", "CH limits", lim.CHMin, lim.CHMax)
	fmt.Fprintf(w, "%-24s %d..%d\n", "DHW limits", lim.DHWMin, lim.DHWMax)
	fmt.Fprintf(w, "%-24s %d\n", "DHW setpoint", lim.DHWSetpoint)
	fmt.Fprintf(w, "%-24s %d\n", "Max modulation", lim.MaxModulation)
	fmt.Fprintf(w, "%-24s %#04b\n", "Circuit enable", lim.CircuitEnable)
}

func fmtVal(get func() (float64, bool)) string {
	v, ok := get()
	if !ok {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtFlag(get func() (bool, bool)) string {
	v, ok := get()
	if !ok {
		return "n/a"
	}
	if v {
		return "on"
	}
	return "off"
}

func fmtCode(get func() (uint16, bool)) string {
	v, ok := get()
	if !ok {
		return "none"
	}
	return strconv.Itoa(int(v))
}
