package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Q3-4/X-Modem---Empfaenger-2025---Extrem/internal/logging"
)

// options is the merged result of defaults, the TOML file and flags.
type options struct {
	ConfigPath string

	Transport string
	Port      string
	Baud      int
	DataBits  int
	Parity    string
	StopBits  string

	SSHHost     string
	SSHUser     string
	SSHCommand  string
	SSHInsecure bool

	LogLevel   string
	LogFile    string
	LogTraffic bool
	Output     string
	SelfTest   string

	Verbose bool
	Quiet   bool
	List    bool
	Version bool
	Help    bool
}

type fileConfig struct {
	Transport   string `toml:"transport"`
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	DataBits    int    `toml:"data_bits"`
	Parity      string `toml:"parity"`
	StopBits    string `toml:"stop_bits"`
	SSHHost     string `toml:"ssh_host"`
	SSHUser     string `toml:"ssh_user"`
	SSHCommand  string `toml:"ssh_command"`
	SSHInsecure bool   `toml:"ssh_insecure"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	LogTraffic  bool   `toml:"log_traffic"`
	Output      string `toml:"output"`
}

func defaultOptions() options {
	return options{
		Transport: "serial",
		Baud:      9600,
		DataBits:  8,
		Parity:    "none",
		StopBits:  "1",
		LogLevel:  "info",
	}
}

func newFlagSet(opts *options, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("xrx", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.ConfigPath, "config", "", "TOML config file")
	fs.StringVar(&opts.Transport, "transport", opts.Transport, "channel: serial, ssh or stdio")
	fs.StringVar(&opts.Port, "port", opts.Port, "serial port name or number (prompted if empty)")
	fs.IntVar(&opts.Baud, "baud", opts.Baud, "serial baud rate")
	fs.IntVar(&opts.DataBits, "databits", opts.DataBits, "serial data bits")
	fs.StringVar(&opts.Parity, "parity", opts.Parity, "serial parity: none, odd, even, mark, space")
	fs.StringVar(&opts.StopBits, "stopbits", opts.StopBits, "serial stop bits: 1, 1.5, 2")
	fs.StringVar(&opts.SSHHost, "ssh-host", opts.SSHHost, "SSH host (hostname:port)")
	fs.StringVar(&opts.SSHUser, "ssh-user", opts.SSHUser, "SSH username")
	fs.StringVar(&opts.SSHCommand, "ssh-cmd", opts.SSHCommand, "remote command providing the byte stream")
	fs.BoolVar(&opts.SSHInsecure, "ssh-insecure", opts.SSHInsecure, "skip SSH host key verification")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&opts.LogFile, "log", opts.LogFile, "protocol log file (for debugging)")
	fs.BoolVar(&opts.LogTraffic, "trace", opts.LogTraffic, "log every byte read and written")
	fs.StringVar(&opts.Output, "o", opts.Output, "write the received message to this file")
	fs.StringVar(&opts.SelfTest, "selftest", "", "receive this text from an in-memory sender and exit")
	fs.BoolVar(&opts.Verbose, "v", false, "verbose mode")
	fs.BoolVar(&opts.Quiet, "q", false, "quiet mode")
	fs.BoolVar(&opts.List, "list", false, "list serial ports and exit")
	fs.BoolVar(&opts.Version, "version", false, "show version")
	fs.BoolVar(&opts.Help, "h", false, "show help")
	return fs
}

// parseArgs resolves options from defaults, then the config file, then
// flags given explicitly on the command line.
func parseArgs(args []string, output io.Writer) (options, error) {
	cli := defaultOptions()
	fs := newFlagSet(&cli, output)
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	portFlag := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			portFlag = true
		}
	})
	// A positional port counts as given on the command line unless -port was.
	if fs.NArg() > 0 && !portFlag {
		cli.Port = fs.Arg(0)
	}

	if cli.ConfigPath == "" {
		return cli, validateOptions(cli)
	}

	opts := defaultOptions()
	if err := loadConfigFile(cli.ConfigPath, &opts); err != nil {
		return options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		applyFlag(&opts, cli, f.Name)
	})
	if fs.NArg() > 0 && !portFlag {
		opts.Port = cli.Port
	}
	opts.ConfigPath = cli.ConfigPath
	opts.SelfTest = cli.SelfTest
	opts.Verbose = cli.Verbose
	opts.Quiet = cli.Quiet
	opts.List = cli.List
	opts.Version = cli.Version
	opts.Help = cli.Help
	return opts, validateOptions(opts)
}

func loadConfigFile(path string, opts *options) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("transport") {
		opts.Transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}
	if meta.IsDefined("port") {
		opts.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		opts.Baud = raw.Baud
	}
	if meta.IsDefined("data_bits") {
		opts.DataBits = raw.DataBits
	}
	if meta.IsDefined("parity") {
		opts.Parity = raw.Parity
	}
	if meta.IsDefined("stop_bits") {
		opts.StopBits = raw.StopBits
	}
	if meta.IsDefined("ssh_host") {
		opts.SSHHost = strings.TrimSpace(raw.SSHHost)
	}
	if meta.IsDefined("ssh_user") {
		opts.SSHUser = strings.TrimSpace(raw.SSHUser)
	}
	if meta.IsDefined("ssh_command") {
		opts.SSHCommand = raw.SSHCommand
	}
	if meta.IsDefined("ssh_insecure") {
		opts.SSHInsecure = raw.SSHInsecure
	}
	if meta.IsDefined("log_level") {
		opts.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("log_file") {
		opts.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("log_traffic") {
		opts.LogTraffic = raw.LogTraffic
	}
	if meta.IsDefined("output") {
		opts.Output = strings.TrimSpace(raw.Output)
	}
	return nil
}

func applyFlag(dst *options, src options, name string) {
	switch name {
	case "transport":
		dst.Transport = src.Transport
	case "port":
		dst.Port = src.Port
	case "baud":
		dst.Baud = src.Baud
	case "databits":
		dst.DataBits = src.DataBits
	case "parity":
		dst.Parity = src.Parity
	case "stopbits":
		dst.StopBits = src.StopBits
	case "ssh-host":
		dst.SSHHost = src.SSHHost
	case "ssh-user":
		dst.SSHUser = src.SSHUser
	case "ssh-cmd":
		dst.SSHCommand = src.SSHCommand
	case "ssh-insecure":
		dst.SSHInsecure = src.SSHInsecure
	case "log-level":
		dst.LogLevel = src.LogLevel
	case "log":
		dst.LogFile = src.LogFile
	case "trace":
		dst.LogTraffic = src.LogTraffic
	case "o":
		dst.Output = src.Output
	}
}

func validateOptions(opts options) error {
	switch opts.Transport {
	case "serial", "ssh", "stdio":
	default:
		return fmt.Errorf("unknown transport %q", opts.Transport)
	}
	if opts.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", opts.Baud)
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return fmt.Errorf("data bits must be 5-8, got %d", opts.DataBits)
	}
	if _, ok := logging.ParseLevel(opts.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", opts.LogLevel)
	}
	return nil
}
