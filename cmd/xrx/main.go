package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Q3-4/X-Modem---Empfaenger-2025---Extrem/internal/logging"
	"github.com/Q3-4/X-Modem---Empfaenger-2025---Extrem/xmodem"
)

const versionString = "xrx version 0.1.0"

func main() {
	os.Exit(run(os.Args[1:], stdConsole(), os.Stdout, os.Stderr))
}

func run(args []string, con *console, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			showUsage(stderr)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if opts.Help {
		showUsage(stderr)
		return 0
	}

	if opts.Version {
		fmt.Fprintln(stdout, versionString)
		return 0
	}

	if opts.List {
		ports, err := xmodem.SerialPorts()
		if err != nil {
			fmt.Fprintf(stderr, "Error listing ports: %v\n", err)
			return 1
		}
		for _, p := range ports {
			fmt.Fprintln(stdout, p)
		}
		return 0
	}

	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	if opts.Quiet {
		level = "warn"
	}
	var logger xmodem.Logger = xmodem.NewZerologLogger(logging.ConfigureRuntime(level), "xmodem")
	if opts.LogFile != "" {
		fileLogger, err := xmodem.NewFileLogger(opts.LogFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: open log file: %v\n", err)
			return 1
		}
		defer fileLogger.Close()
		logger = fileLogger
	}

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	// After the first signal a second one terminates the process
	context.AfterFunc(ctx, cancel)

	var opener xmodem.Opener
	var name string
	if opts.SelfTest != "" {
		opener, name = selfTestOpener(opts.SelfTest), "selftest"
	} else {
		opener, name, err = newOpener(opts, con)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	// With stdio the protocol owns stdout
	report := stdout
	if opts.Transport == "stdio" && opts.SelfTest == "" {
		report = stderr
	}

	callbacks := &xmodem.Callbacks{
		OnProgress: func(received int64, blocks int, rate float64) {
			if opts.Verbose && !opts.Quiet {
				fmt.Fprintf(stderr, "\r%d block(s), %d byte(s) (%.0f bytes/s)", blocks, received, rate)
			}
		},
		OnError: func(err error, context string) {
			fmt.Fprintf(stderr, "\nError in %s: %v\n", context, err)
		},
	}

	if !opts.Quiet {
		fmt.Fprintf(stderr, "Receiver starting on %s\n", name)
	}

	session := xmodem.NewSession(opener,
		xmodem.WithConfig(&xmodem.Config{
			ProgressInterval: xmodem.DefaultConfig().ProgressInterval,
			LogTraffic:       opts.LogTraffic,
		}),
		xmodem.WithCallbacks(callbacks),
		xmodem.WithContext(ctx),
		xmodem.WithSessionLogger(logger),
	)

	transfer, err := session.Run(ctx)
	if transfer != nil {
		printTransfer(report, transfer, opts.Quiet)
		if opts.Output != "" {
			if werr := os.WriteFile(opts.Output, transfer.Message, 0644); werr != nil {
				fmt.Fprintf(stderr, "Error: write %s: %v\n", opts.Output, werr)
				return 1
			}
		}
	}
	if err != nil {
		return 1
	}
	return 0
}

func printTransfer(w io.Writer, t *xmodem.Transfer, quiet bool) {
	if quiet {
		fmt.Fprintf(w, "%s\n", t.Message)
		return
	}
	fmt.Fprintln(w, "\n=============================================")
	fmt.Fprintf(w, "Received message: %q\n", t.Message)
	fmt.Fprintln(w, "=============================================")
	fmt.Fprintf(w, "blocks=%d accepted=%d rejected=%d sequence-warnings=%d noise=%d complete=%v (%v, %.1f bytes/s)\n",
		t.Blocks, t.Accepted, t.Rejected, t.SequenceWarnings, t.NoiseBytes, t.Completed, t.Duration, t.Rate)
}

// selfTestOpener serves text as well-formed blocks followed by EOT.
func selfTestOpener(text string) xmodem.Opener {
	return xmodem.OpenerFunc(func() (xmodem.Channel, error) {
		var script bytes.Buffer
		for _, blk := range xmodem.EncodeMessage([]byte(text)) {
			script.Write(blk[:])
		}
		script.WriteByte(xmodem.EOT)
		return xmodem.NewStreamChannel(&script, io.Discard), nil
	})
}

func showUsage(w io.Writer) {
	fmt.Fprintf(w, `%s - receive a text message with the XMODEM block protocol

Usage: xrx [options] [port]

Options:
  -config FILE       TOML config file (flags override it)
  -transport NAME    serial (default), ssh or stdio
  -port NAME         serial port name or number; prompted if empty
  -baud N            baud rate (default: 9600)
  -databits N        data bits (default: 8)
  -parity NAME       none, odd, even, mark, space (default: none)
  -stopbits N        1, 1.5 or 2 (default: 1)
  -ssh-host HOST     SSH host (hostname:port)
  -ssh-user USER     SSH username (password from %s or prompt)
  -ssh-cmd CMD       remote command providing the byte stream
  -ssh-insecure      skip SSH host key verification
  -o FILE            write the received message to FILE
  -log FILE          protocol log file
  -log-level LEVEL   debug, info, warn, error (default: info)
  -trace             log every byte read and written
  -selftest TEXT     receive TEXT from an in-memory sender
  -list              list serial ports
  -v                 verbose mode
  -q                 quiet mode
  -h                 show this help message
  -version           show version

Examples:
  xrx 3                       # COM3 on Windows, /dev/ttyS3 elsewhere
  xrx -port /dev/ttyUSB0 -baud 19200
  xrx -transport ssh -ssh-host lab:22 -ssh-user pi -ssh-cmd "socat - /dev/ttyUSB0,raw,b9600"

`, versionString, envSSHPassword)
}
