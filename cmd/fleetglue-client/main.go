// Command fleetglue-client is an interactive controller for register
// servers.
//
// Usage:
//
//	fleetglue-client [flags]
//
// Flags:
//
//	-endpoint string   Server address (default "localhost:4840")
//	-config string     Configuration file path (YAML)
//	-legacy-schema     Use the legacy register names
//	-log-level string  Log level: debug, info, warn, error
//
// The client presents a numbered menu over the connection; entering
// the number runs the operation against a device chosen by name.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/fleetglue/fleetglue-go/internal/logging"
	"github.com/fleetglue/fleetglue-go/pkg/client"
	"github.com/fleetglue/fleetglue-go/pkg/config"
	"github.com/fleetglue/fleetglue-go/pkg/discovery"
)

func main() {
	var (
		endpoint   = flag.String("endpoint", "", "server address (overrides config)")
		configPath = flag.String("config", "", "configuration file path")
		legacy     = flag.Bool("legacy-schema", false, "use the legacy register names")
		logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg := config.DefaultClient()
	if *configPath != "" {
		loaded, err := config.LoadClient(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fleetglue-client: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *legacy {
		cfg.Schema = "legacy"
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	schema := client.DefaultSchema
	if cfg.Schema == "legacy" {
		schema = client.LegacySchema
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	c, err := client.Dial(ctx, cfg.Endpoint,
		client.WithSchema(schema),
		client.WithLogger(logger),
	)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetglue-client: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fleetglue> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetglue-client: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	m := &menu{c: c, rl: rl}
	m.run()
}

type menu struct {
	c  *client.Client
	rl *readline.Instance
}

func (m *menu) out() io.Writer { return m.rl.Stdout() }

func (m *menu) run() {
	m.printMenu()

	for {
		line, err := m.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(m.out(), "Exiting...")
			return
		}

		choice := strings.TrimSpace(line)
		switch choice {
		case "":
			m.printMenu()
		case "0":
			fmt.Fprintln(m.out(), "Exiting...")
			return
		case "1":
			m.cmdListDevices()
		case "2":
			m.cmdDeviceInfo()
		case "3":
			m.cmdToggle()
		case "4":
			m.cmdPressAndRelease()
		case "5":
			m.cmdPress()
		case "6":
			m.cmdRelease()
		case "7":
			m.cmdCount()
		case "8":
			m.cmdLastChange()
		case "9":
			m.cmdDiscover()
		case "help", "?":
			m.printMenu()
		default:
			fmt.Fprintf(m.out(), "Unknown option %q\n", choice)
		}
	}
}

func (m *menu) printMenu() {
	fmt.Fprint(m.out(), `
  1) List devices
  2) Show device registers
  3) Toggle switch
  4) Press and release button
  5) Press button
  6) Release button
  7) Show activation count
  8) Show last state change
  9) Discover servers (mDNS)
  0) Exit
`)
}

// prompt asks for one value on its own prompt line. Empty input or
// interrupt cancels the operation.
func (m *menu) prompt(label string) (string, bool) {
	saved := m.rl.Config.Prompt
	m.rl.SetPrompt(label)
	defer m.rl.SetPrompt(saved)

	line, err := m.rl.Readline()
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", false
	}
	return value, true
}

func (m *menu) cmdListDevices() {
	devices, err := m.c.GetDevices()
	if err != nil {
		m.fail(err)
		return
	}
	if len(devices) == 0 {
		fmt.Fprintln(m.out(), "No devices.")
		return
	}
	for _, name := range devices {
		fmt.Fprintf(m.out(), "  %s\n", name)
	}
}

func (m *menu) cmdDeviceInfo() {
	name, ok := m.prompt("device name: ")
	if !ok {
		return
	}
	info, err := m.c.GetDeviceInfo(name)
	if err != nil {
		m.fail(err)
		return
	}
	for _, reg := range info {
		access := "ro"
		if reg.Writable {
			access = "rw"
		}
		fmt.Fprintf(m.out(), "  %-16s %-6s %v\n", reg.Name, access, reg.Value)
	}
}

func (m *menu) cmdToggle() {
	name, ok := m.prompt("switch name: ")
	if !ok {
		return
	}
	state, err := m.c.ToggleSwitch(name)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out(), "%s is now %s\n", name, onOff(state))
}

func (m *menu) cmdPressAndRelease() {
	name, ok := m.prompt("button name: ")
	if !ok {
		return
	}
	if err := m.c.PressAndRelease(name); err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out(), "%s pressed and released\n", name)
}

func (m *menu) cmdPress() {
	name, ok := m.prompt("button name: ")
	if !ok {
		return
	}
	if err := m.c.PressButton(name); err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out(), "%s pressed\n", name)
}

func (m *menu) cmdRelease() {
	name, ok := m.prompt("button name: ")
	if !ok {
		return
	}
	if err := m.c.ReleaseButton(name); err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out(), "%s released\n", name)
}

func (m *menu) cmdCount() {
	name, ok := m.prompt("device name: ")
	if !ok {
		return
	}
	count, err := m.c.GetCount(name)
	if err != nil {
		m.fail(err)
		return
	}
	fmt.Fprintf(m.out(), "%s count: %d\n", name, count)
}

func (m *menu) cmdLastChange() {
	name, ok := m.prompt("device name: ")
	if !ok {
		return
	}
	ts, err := m.c.GetLastChange(name)
	if err != nil {
		m.fail(err)
		return
	}
	if ts == 0 {
		fmt.Fprintf(m.out(), "%s has not changed yet\n", name)
		return
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	fmt.Fprintf(m.out(), "%s last changed: %s\n", name, time.Unix(sec, nsec).Format(time.RFC3339))
}

func (m *menu) cmdDiscover() {
	fmt.Fprintln(m.out(), "Browsing for servers...")
	endpoints, err := discovery.Browse(context.Background(), discovery.BrowseTimeout)
	if err != nil {
		m.fail(err)
		return
	}
	if len(endpoints) == 0 {
		fmt.Fprintln(m.out(), "No servers found.")
		return
	}
	for _, ep := range endpoints {
		fmt.Fprintf(m.out(), "  %-20s %s\n", ep.Instance, ep.Addr())
	}
}

// fail reports an operation error and keeps the menu alive; a typo in
// a device name must not end the session.
func (m *menu) fail(err error) {
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(m.out(), "Connection lost.")
		return
	}
	fmt.Fprintf(m.out(), "Error: %v\n", err)
}

func onOff(state bool) string {
	if state {
		return "ON"
	}
	return "OFF"
}
