// Command tabletmagicd is the daemon entry point: it parses the CLI
// surface from spec.md §6, wires a logging EventSink and a flat-file
// PrefStore, runs the identification probe, and drives the core run
// loop until a signal or control-plane "quit" requests shutdown.
// Grounded on original_source/daemon/SerialDaemon.cpp's
// process_arguments/usage/signal_handler (the SUID privilege step is
// Darwin-specific platform glue out of this core's scope per spec.md
// §1 and is not reproduced).
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
	"syscall"

	"github.com/tabletmagic/daemon/control"
	"github.com/tabletmagic/daemon/core"
	"github.com/tabletmagic/daemon/eventsynth"
	"github.com/tabletmagic/daemon/hostio"
	"github.com/tabletmagic/daemon/identify"
	"github.com/tabletmagic/daemon/serialio"
)

const exUnavailable = 69

func main() {
	os.Exit(run())
}

func run() int {
	var (
		quiet       = flag.Bool("q", false, "suppress diagnostic messages")
		commandMode = flag.Bool("c", false, "run in command mode")
		detach      = flag.Bool("d", false, "detach (run as a background daemon)")
		forcePC     = flag.Bool("F", false, "force the TabletPC hypothesis")
		baud38400   = flag.Bool("3", false, "prefer 38400 baud")
		startOff    = flag.Bool("o", false, "start up with event emission disabled")
		exitAfter   = flag.Bool("X", false, "exit after a successful probe")
		mouseMode   = flag.Bool("m", false, "operate in mouse mode")
		port        = flag.String("p", "", "serial port to connect to (empty = auto)")
		initSetup   = flag.String("i", "", "initial setup string to send to the tablet")
		left        = flag.Int("l", 0, "screen left bound")
		right       = flag.Int("r", 1920, "screen right bound")
		top         = flag.Int("t", 0, "screen top bound")
		bottom      = flag.Int("b", 1080, "screen bottom bound")
		tabLeft     = flag.Int("L", 0, "tablet left bound")
		tabRight    = flag.Int("R", 0, "tablet right bound (0 = xscale)")
		tabTop      = flag.Int("T", 0, "tablet top bound")
		tabBottom   = flag.Int("B", 0, "tablet bottom bound (0 = yscale)")
		niceness    = flag.Int("n", 0, "process priority (-20..20)")
		scaling     = flag.Float64("s", 1.0, "mouse-mode scaling factor")
		buttonMap   = flag.String("M", "", "stylus:system button remap, e.g. tip:1,side1:2")
	)
	flag.Usage = usage
	flag.Parse()

	if *niceness != 0 {
		if err := syscall.Setpriority(syscall.PRIO_PROCESS, 0, *niceness); err != nil && !*quiet {
			fmt.Fprintf(os.Stderr, "[ERR ] setpriority: %v\n", err)
		}
	}

	sink := hostio.EventSink(hostio.NewLoggingSink())
	prefs := hostio.NewFileStore(defaultPrefPath())
	c := core.New(sink, prefs)

	hint := identify.Hint{LikelyTabletPC: *forcePC, Prefer38400: *baud38400}

	devicePath := *port
	if devicePath == "" {
		candidates, err := serialio.Enumerate("")
		if err != nil || len(candidates) == 0 {
			if !*quiet {
				fmt.Fprintln(os.Stderr, "[ERR ] no candidate serial ports found")
			}
			if *commandMode {
				devicePath = ""
			} else {
				return exUnavailable
			}
		} else {
			devicePath = candidates[0]
		}
	}

	if devicePath != "" {
		if err := c.Open(devicePath, hint); err != nil {
			if !*quiet {
				fmt.Fprintf(os.Stderr, "[ERR ] %v\n", err)
			}
			if !*commandMode {
				return exUnavailable
			}
		} else if *initSetup != "" {
			if err := c.Setup(*initSetup); err != nil && !*quiet {
				fmt.Fprintf(os.Stderr, "[ERR ] setup: %v\n", err)
			}
		}
	}

	if *tabRight == 0 {
		x, y := c.Scale()
		*tabRight, *tabBottom = int(x), int(y)
	}
	c.SetGeom(fmt.Sprintf("%d %d %d %d %d %d %d %d %d %g",
		*tabLeft, *tabTop, *tabRight-*tabLeft, *tabBottom-*tabTop,
		*left, *top, *right-*left, *bottom-*top,
		boolToInt(*mouseMode), *scaling))

	if *buttonMap != "" {
		applyButtonMap(c, *buttonMap)
	}

	if !*startOff {
		c.Start()
	}

	if *exitAfter {
		return 0
	}

	plane := control.New(c)
	c.Plane = plane

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGABRT)
	go func() {
		<-sig
		c.Quit()
		cancel()
	}()

	if *commandMode {
		runCommandMode(ctx, plane)
	}
	if *detach && !*quiet {
		fmt.Fprintln(os.Stderr, "[INIT] -d: detachment is left to the process supervisor (launchd/systemd), not forked here")
	}

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "[ERR ] run: %v\n", err)
		}
	}
	return 0
}

// runCommandMode drives the control plane off stdin/stdout, one
// command per line, alongside the normal run loop — a substitute for
// the GUI preference pane's message port in command-line testing and
// scripting.
func runCommandMode(ctx context.Context, plane *control.Plane) {
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			reply, _ := plane.Dispatch(scanner.Text())
			fmt.Println(reply)
		}
	}()
}

// applyButtonMap parses "-M tip:1,side1:2,eraser:6"-style pairs into
// c.Synth.ButtonMapping. The numeric target follows eventsynth's
// ClickKind ordering (0 none, 1-5 system buttons 1-5, 6 eraser, 7
// double-click, 8 single-click, 9 control-click, 10 click-or-release).
func applyButtonMap(c *core.Core, spec string) {
	inputs := map[string]eventsynth.StylusInput{
		"tip": eventsynth.InputTip, "side1": eventsynth.InputSide1,
		"side2": eventsynth.InputSide2, "eraser": eventsynth.InputEraser,
	}
	for _, pair := range strings.Split(spec, ",") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			continue
		}
		input, ok := inputs[strings.ToLower(kv[0])]
		if !ok {
			continue
		}
		target, err := strconv.Atoi(kv[1])
		if err != nil || target < 0 || target > int(eventsynth.ClickOrRelease) {
			continue
		}
		c.Synth.ButtonMapping[input] = eventsynth.ClickKind(target)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func defaultPrefPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tabletmagicd.json"
	}
	return dir + "/tabletmagicd.json"
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tabletmagicd [options]")
	flag.PrintDefaults()
}
