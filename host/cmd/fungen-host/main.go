package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"fungen/config"
	"fungen/core"
	"fungen/host/panel"
)

var (
	configPath = flag.String("config", "", "JSON config file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	verbose    = flag.Bool("verbose", false, "Print unsolicited replies")
)

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfigFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Connecting to generator on %s...\n", cfg.Serial.Device)
	c, err := panel.Connect(ctx, cfg.Serial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()
	if *verbose {
		c.OnMessage = func(name string, args []byte) {
			fmt.Printf("<- %s % x\n", name, args)
		}
	}

	if err := c.RetrieveDictionary(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() > 0 {
		if err := run(ctx, c, flag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "quit" || parts[0] == "exit" || parts[0] == "q" {
			return
		}
		if err := run(ctx, c, parts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *panel.Client, args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help", "?":
		printHelp()
		return nil

	case "dict":
		c.Dictionary().Print(os.Stdout)
		return nil

	case "raw":
		fmt.Printf("%s\n", c.RawDictionary())
		return nil

	case "status":
		return printStatus(ctx, c)

	case "watch":
		return watch(ctx, c)

	case "mode":
		if len(args) != 1 {
			return fmt.Errorf("usage: mode dds|arb|pwm")
		}
		m, err := parseMode(args[0])
		if err != nil {
			return err
		}
		return c.SetMode(ctx, m)

	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <field> <value>")
		}
		f, ok := core.ParseField(args[0])
		if !ok {
			return fmt.Errorf("unknown field %q", args[0])
		}
		v, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return err
		}
		fv, err := c.SetField(ctx, f, int32(v))
		if err != nil {
			return err
		}
		printField(fv)
		return nil

	case "wave":
		if len(args) != 1 {
			return fmt.Errorf("usage: wave <name>")
		}
		w, ok := core.ParseWaveform(args[0])
		if !ok {
			return fmt.Errorf("unknown waveform %q", args[0])
		}
		return c.SetWaveform(ctx, w)

	case "output":
		if len(args) != 1 {
			return fmt.Errorf("usage: output dds_dac|dds_freq|amplitude|offset")
		}
		for k := core.SinkDDSDAC; k <= core.SinkOffset; k++ {
			if k.String() == args[0] {
				return c.SetOutput(ctx, k)
			}
		}
		return fmt.Errorf("unknown output %q", args[0])

	case "run", "pause", "stop":
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		return c.Call(ctx, st.Mode.String()+"_"+cmd)

	case "mod":
		return setModulation(ctx, c, args)

	case "debug":
		return c.SetDebug(ctx, len(args) == 0 || args[0] != "off")

	case "knob":
		f := core.FieldArbFreq
		if len(args) > 0 {
			var ok bool
			if f, ok = core.ParseField(args[0]); !ok {
				return fmt.Errorf("unknown field %q", args[0])
			}
		}
		return knob(ctx, c, f)
	}

	// Anything else goes out by dictionary name with integer arguments.
	ints := make([]int32, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 0, 32)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+1, err)
		}
		ints[i] = int32(v)
	}
	return c.Call(ctx, cmd, ints...)
}

func parseMode(s string) (core.Mode, error) {
	for m := core.ModeDDS; m <= core.ModePWM; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func setModulation(ctx context.Context, c *panel.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: mod off|am|fm")
	}
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if _, err := config.ParseModType(args[0]); err != nil {
		return err
	}
	cfg.Modulation.Type = args[0]
	return c.SetModulation(ctx, cfg.ModulationSettings())
}

func printStatus(ctx context.Context, c *panel.Client) error {
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("mode=%s wave=%s state=%d output=%s mod=%s\n",
		st.Mode, st.Wave, st.ArbState, st.Sink, st.Mod)
	fmt.Printf("arb %s tick=%dHz inc=%d  dds %s\n",
		deciHz(st.ArbFreq), st.TickRate, st.Increment, deciHz(st.DDSFreq))
	fmt.Printf("pwm %s duty=%d.%d%% th=%dns tl=%dns\n",
		deciHz(st.PWMFreq), st.PWMDuty/10, st.PWMDuty%10, st.PWMTh, st.PWMTl)
	fmt.Printf("vpp=%dmV offset=%dmV bus drops=%d\n", st.Vpp, st.Offset, st.Drops)
	return nil
}

func watch(ctx context.Context, c *panel.Client) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		if err := printStatus(ctx, c); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printField(fv *panel.FieldValue) {
	mark := ""
	if !fv.Changed {
		mark = " (unchanged)"
	}
	fmt.Printf("%s = %d [%d..%d]%s\n", fv.Field, fv.Value, fv.Min, fv.Max, mark)
}

func deciHz(v uint32) string {
	return fmt.Sprintf("%d.%dHz", v/10, v%10)
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  status               - Show generator state")
	fmt.Println("  watch                - Show generator state every second")
	fmt.Println("  mode dds|arb|pwm     - Switch the active page")
	fmt.Println("  set <field> <value>  - Write a field (arb_freq, vpp, pwm_duty, ...)")
	fmt.Println("  wave <name>          - Select the ARB waveform")
	fmt.Println("  output <sink>        - Route ARB samples")
	fmt.Println("  run|pause|stop       - Control the active page")
	fmt.Println("  mod off|am|fm        - Modulation using the config file windows")
	fmt.Println("  knob [field]         - Edit a field with the arrow keys")
	fmt.Println("  debug on|off         - Generator debug output")
	fmt.Println("  dict, raw            - Show the dictionary")
	fmt.Println("  <command> [args...]  - Send any dictionary command")
	fmt.Println("  quit/exit/q          - Exit the program")
	fmt.Println()
}
