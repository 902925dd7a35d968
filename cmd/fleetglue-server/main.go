// Command fleetglue-server exposes simulated field devices as named
// registers over TCP.
//
// Usage:
//
//	fleetglue-server [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-listen string     Listen address (overrides config)
//	-log-level string  Log level: debug, info, warn, error
//	-advertise         Advertise the server over mDNS
//
// Without a config file the server starts the stock device set: an
// auto-toggling switch (VirtualSwitch, 2s interval) and a button
// (Button1, pin 17).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetglue/fleetglue-go/internal/logging"
	"github.com/fleetglue/fleetglue-go/pkg/config"
	"github.com/fleetglue/fleetglue-go/pkg/device"
	"github.com/fleetglue/fleetglue-go/pkg/registry"
)

func main() {
	var (
		configPath = flag.String("config", "", "configuration file path")
		listen     = flag.String("listen", "", "listen address (overrides config)")
		logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error")
		advertise  = flag.Bool("advertise", false, "advertise the server over mDNS")
	)
	flag.Parse()

	cfg := config.DefaultServer()
	if *configPath != "" {
		loaded, err := config.LoadServer(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fleetglue-server: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *advertise {
		cfg.Advertise = true
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	reg := registry.New(registry.Config{
		Namespace: cfg.Namespace,
		Listen:    cfg.Listen,
		Advertise: cfg.Advertise,
		Instance:  cfg.Instance,
		Logger:    logger,
	})

	for _, dc := range cfg.Devices {
		d, err := buildDevice(dc)
		if err != nil {
			logger.Error("invalid device config", "device", dc.Name, "err", err)
			os.Exit(1)
		}
		if err := reg.AddDevice(d); err != nil {
			logger.Error("failed to add device", "device", dc.Name, "err", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.Start(ctx); err != nil {
		logger.Error("failed to start registry", "err", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	if err := reg.Stop(); err != nil {
		logger.Error("shutdown error", "err", err)
		os.Exit(1)
	}
}

func buildDevice(dc config.DeviceConfig) (device.Device, error) {
	switch dc.Type {
	case config.TypeSwitch:
		if dc.Auto {
			return device.NewAutoSwitch(dc.Name, dc.Interval.Std()), nil
		}
		return device.NewSwitch(dc.Name), nil
	case config.TypeButton:
		var opts []device.ButtonOption
		if dc.Pin != 0 {
			opts = append(opts, device.WithPin(dc.Pin))
		}
		if dc.Auto {
			return device.NewSimButton(dc.Name, dc.Interval.Std(), dc.FlipChance, opts...), nil
		}
		return device.NewButton(dc.Name, opts...), nil
	default:
		return nil, fmt.Errorf("unknown device type %q", dc.Type)
	}
}
