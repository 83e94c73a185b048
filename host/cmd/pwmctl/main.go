// Command pwmctl drives the PWM controller on an Arduino Due over its
// serial link, or a simulated one in-process, from an interactive console.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"duepwm/core"
	"duepwm/host/config"
	"duepwm/host/serial"
	"duepwm/host/store"
	"duepwm/protocol"
)

var (
	device    = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud      = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	sim       = flag.Bool("sim", false, "Drive a simulated board instead of real hardware")
	planFile  = flag.String("config", "", "JSON channel plan to apply on startup")
	storePath = flag.String("store", "", "Plan store database path (enables save/load commands)")
	verbose   = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	client, cleanup, err := connect(log)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	if err := client.Ping(); err != nil {
		log.Fatalf("board not responding: %v", err)
	}
	log.Debug("board answered ping")

	var plans store.Store
	if *storePath != "" {
		plans, err = store.OpenBBolt(*storePath, 0o600, nil)
		if err != nil {
			log.Fatal(err)
		}
		defer plans.Close()
	}

	if *planFile != "" {
		if err := applyFile(client, *planFile); err != nil {
			log.Fatal(err)
		}
		log.Infof("applied %s", *planFile)
	}

	console(client, plans, log)
}

func connect(log *logrus.Logger) (*protocol.Client, func(), error) {
	if *sim {
		log.Debug("running against a simulated board")
		regs := core.NewSimRegisters()
		pwm := core.NewPeripheral(regs, simGate{})
		if err := pwm.InitDefault(); err != nil {
			return nil, nil, err
		}
		lb := &loopback{srv: protocol.NewServer(pwm), dec: protocol.NewDecoder()}
		return protocol.NewClient(lb, 0), func() {}, nil
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	log.Debugf("opening %s at %d baud", cfg.Device, cfg.Baud)
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	port.Flush()
	return protocol.NewClient(port, 0), func() { port.Close() }, nil
}

func console(client *protocol.Client, plans store.Store, log *logrus.Logger) {
	fmt.Println("pwmctl - type 'help' for commands, 'quit' to exit")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
		default:
			if err := runCommand(client, plans, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("reading input: %v", err)
	}
}

func runCommand(client *protocol.Client, plans store.Store, args []string) error {
	switch args[0] {
	case "ping":
		if err := client.Ping(); err != nil {
			return err
		}
		fmt.Println("pong")
		return nil

	case "reset":
		return client.Reset()

	case "status":
		mask, err := client.ChannelStatus()
		if err != nil {
			return err
		}
		fmt.Printf("enabled channels: %08b\n", mask)
		return nil

	case "info":
		ch, err := channelArg(args, 1)
		if err != nil {
			return err
		}
		info, err := client.ChannelInfo(ch)
		if err != nil {
			return err
		}
		state := "disabled"
		if info.Enabled {
			state = "enabled"
		}
		fmt.Printf("channel %d: %s, period %d, duty %d, %d Hz\n",
			ch, state, info.Period, info.DutyCycle, info.FrequencyHz)
		return nil

	case "config":
		return configCommand(client, args)

	case "duty":
		ch, err := channelArg(args, 1)
		if err != nil {
			return err
		}
		duty, err := uintArg(args, 2, "duty")
		if err != nil {
			return err
		}
		return client.SetDutyCycle(ch, duty)

	case "enable", "disable":
		mask, err := maskArg(args)
		if err != nil {
			return err
		}
		if args[0] == "enable" {
			return client.EnableChannels(mask)
		}
		return client.DisableChannels(mask)

	case "clock":
		return clockCommand(client, args)

	case "apply":
		if len(args) != 2 {
			return fmt.Errorf("usage: apply <file.json>")
		}
		return applyFile(client, args[1])

	case "plans", "save", "load", "delete":
		if plans == nil {
			return fmt.Errorf("no plan store open (run with -store)")
		}
		return storeCommand(client, plans, args)
	}

	return fmt.Errorf("unknown command %q (type 'help')", args[0])
}

// configCommand parses: config <ch> <freq> [duty] [key=value...]
// with keys polarity=low|high, align=left|center, clock=a|b, period=N.
func configCommand(client *protocol.Client, args []string) error {
	ch, err := channelArg(args, 1)
	if err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: config <ch> <freq_hz> [duty] [key=value...]")
	}

	spec := config.ChannelSpec{Channel: ch, Polarity: "low", Alignment: "left", Clock: "direct"}
	if spec.FrequencyHz, err = uintArg(args, 2, "frequency"); err != nil {
		return err
	}

	rest := args[3:]
	if len(rest) > 0 && !strings.Contains(rest[0], "=") {
		if spec.DutyCycle, err = uintArg(args, 3, "duty"); err != nil {
			return err
		}
		rest = rest[1:]
	}
	for _, kv := range rest {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", kv)
		}
		switch key {
		case "polarity":
			spec.Polarity = value
		case "align":
			spec.Alignment = value
		case "clock":
			spec.Clock = value
		case "period":
			n, err := strconv.ParseUint(value, 0, 32)
			if err != nil {
				return fmt.Errorf("bad period %q", value)
			}
			spec.Period = uint32(n)
		default:
			return fmt.Errorf("unknown option %q", key)
		}
	}

	plan := config.Plan{Channels: []config.ChannelSpec{spec}}
	if err := plan.Validate(); err != nil {
		return err
	}
	period, err := client.ConfigureChannel(ch, spec.CoreConfig())
	if err != nil {
		return err
	}
	if err := client.EnableChannels(core.ChannelMask(ch)); err != nil {
		return err
	}
	fmt.Printf("channel %d configured, period %d\n", ch, period)
	return nil
}

// clockCommand parses: clock <a|b> <freq_hz> | clock <a|b> div <pre> <div> |
// clock <a|b> off.
func clockCommand(client *protocol.Client, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: clock <a|b> <freq_hz>|off|div <pre> <div>")
	}
	var id core.ClockID
	switch args[1] {
	case "a":
		id = core.ClockA
	case "b":
		id = core.ClockB
	default:
		return fmt.Errorf("unknown clock %q", args[1])
	}

	switch args[2] {
	case "off":
		return client.TurnOffAuxClock(id)
	case "div":
		pre, err := uintArg(args, 3, "prescaler")
		if err != nil {
			return err
		}
		div, err := uintArg(args, 4, "divisor")
		if err != nil {
			return err
		}
		return client.SetAuxClock(id, uint8(pre), uint8(div))
	default:
		hz, err := uintArg(args, 2, "frequency")
		if err != nil {
			return err
		}
		setting, err := client.SetAuxClockFrequency(id, hz)
		if err != nil {
			return err
		}
		fmt.Printf("clock %s: prescaler /%d, divisor %d\n", id, 1<<setting.Prescaler, setting.Divisor)
		return nil
	}
}

func storeCommand(client *protocol.Client, plans store.Store, args []string) error {
	switch args[0] {
	case "plans":
		names, err := plans.ListPlans()
		if err != nil {
			return err
		}
		def, _ := plans.DefaultPlan()
		for _, name := range names {
			if name == def {
				fmt.Printf("  %s (default)\n", name)
			} else {
				fmt.Printf("  %s\n", name)
			}
		}
		return nil

	case "save":
		if len(args) != 3 {
			return fmt.Errorf("usage: save <name> <file.json>")
		}
		plan, err := loadFile(args[2])
		if err != nil {
			return err
		}
		return plans.PutPlan(args[1], plan)

	case "load":
		if len(args) != 2 {
			return fmt.Errorf("usage: load <name>")
		}
		plan, err := plans.Plan(args[1])
		if err != nil {
			return err
		}
		return plan.ApplyRemote(client)

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: delete <name>")
		}
		return plans.DeletePlan(args[1])
	}
	return nil
}

func loadFile(path string) (*config.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.Load(data)
}

func applyFile(client *protocol.Client, path string) error {
	plan, err := loadFile(path)
	if err != nil {
		return err
	}
	return plan.ApplyRemote(client)
}

func channelArg(args []string, i int) (uint8, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing channel number")
	}
	n, err := strconv.ParseUint(args[i], 0, 8)
	if err != nil || n >= core.NumChannels {
		return 0, fmt.Errorf("bad channel %q", args[i])
	}
	return uint8(n), nil
}

func uintArg(args []string, i int, name string) (uint32, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing %s", name)
	}
	n, err := strconv.ParseUint(args[i], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", name, args[i])
	}
	return uint32(n), nil
}

// maskArg accepts either a single bitmask (0x05) or channel numbers.
func maskArg(args []string) (uint8, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("missing channels")
	}
	if len(args) == 2 && strings.HasPrefix(args[1], "0x") {
		n, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return 0, fmt.Errorf("bad mask %q", args[1])
		}
		return uint8(n), nil
	}
	var mask uint8
	for _, a := range args[1:] {
		n, err := strconv.ParseUint(a, 10, 8)
		if err != nil || n >= core.NumChannels {
			return 0, fmt.Errorf("bad channel %q", a)
		}
		mask |= core.ChannelMask(uint8(n))
	}
	return mask, nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  ping                             - Check the board is alive")
	fmt.Println("  reset                            - Reset the PWM peripheral")
	fmt.Println("  status                           - Show enabled channel mask")
	fmt.Println("  info <ch>                        - Show one channel's settings")
	fmt.Println("  config <ch> <freq> [duty] [k=v]  - Configure and enable a channel")
	fmt.Println("                                     options: polarity=high align=center")
	fmt.Println("                                              clock=a|b period=N")
	fmt.Println("  duty <ch> <value>                - Change duty cycle on the fly")
	fmt.Println("  enable <ch...>|<mask>            - Enable channels")
	fmt.Println("  disable <ch...>|<mask>           - Disable channels")
	fmt.Println("  clock <a|b> <freq>|off           - Program or stop a shared clock")
	fmt.Println("  clock <a|b> div <pre> <div>      - Program a clock by raw setting")
	fmt.Println("  apply <file.json>                - Apply a channel plan")
	fmt.Println("  plans / save / load / delete     - Manage stored plans (-store)")
	fmt.Println("  quit/exit/q                      - Exit")
	fmt.Println()
}

type simGate struct{}

func (simGate) EnablePeripheralClock(id uint8) error  { return nil }
func (simGate) DisablePeripheralClock(id uint8) error { return nil }
func (simGate) PeripheralClockEnabled(id uint8) bool  { return true }

// loopback runs the protocol server in-process so the console works
// without hardware attached.
type loopback struct {
	srv *protocol.Server
	dec *protocol.Decoder
	out []byte
}

func (l *loopback) Write(p []byte) (int, error) {
	l.dec.Write(p)
	for {
		f, ok := l.dec.Next()
		if !ok {
			return len(p), nil
		}
		resp := l.srv.Handle(f.Payload)
		frame, err := protocol.EncodeFrame(protocol.SeqBoard|f.Seq&protocol.SeqMask, resp)
		if err != nil {
			return len(p), err
		}
		l.out = append(l.out, frame...)
	}
}

func (l *loopback) Read(p []byte) (int, error) {
	if len(l.out) == 0 {
		return 0, io.EOF
	}
	n := copy(p, l.out)
	l.out = l.out[n:]
	return n, nil
}
