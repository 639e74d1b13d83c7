package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Q3-4/X-Modem---Empfaenger-2025---Extrem/xmodem"
	"go.bug.st/serial"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

const envSSHPassword = "XRX_SSH_PASSWORD"

// console is the interactive side used for prompts.
type console struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	readSecret  func() ([]byte, error)
}

func stdConsole() *console {
	fd := int(os.Stdin.Fd())
	return &console{
		in:          os.Stdin,
		out:         os.Stderr,
		interactive: term.IsTerminal(fd),
		readSecret:  func() ([]byte, error) { return term.ReadPassword(fd) },
	}
}

func (c *console) prompt(label string) (string, error) {
	if !c.interactive {
		return "", fmt.Errorf("%s required (stdin is not a terminal)", strings.ToLower(label))
	}
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newOpener(opts options, con *console) (xmodem.Opener, string, error) {
	switch opts.Transport {
	case "stdio":
		return xmodem.StdioOpener{}, "stdio", nil
	case "ssh":
		o, err := newSSHOpener(opts, con)
		if err != nil {
			return nil, "", err
		}
		return o, "ssh://" + o.Addr, nil
	default:
		o, err := newSerialOpener(opts, con)
		if err != nil {
			return nil, "", err
		}
		return o, o.String(), nil
	}
}

func newSerialOpener(opts options, con *console) (*xmodem.SerialOpener, error) {
	port := opts.Port
	if port == "" {
		var err error
		if port, err = con.prompt("Port"); err != nil {
			return nil, err
		}
		if port == "" {
			return nil, fmt.Errorf("no port given")
		}
	}

	parity, err := xmodem.ParseParity(opts.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := xmodem.ParseStopBits(opts.StopBits)
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.Baud,
		DataBits: opts.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	}
	return xmodem.NewSerialOpener(xmodem.PortName(port), mode), nil
}

func newSSHOpener(opts options, con *console) (*xmodem.SSHOpener, error) {
	if opts.SSHHost == "" {
		return nil, fmt.Errorf("-ssh-host is required for the ssh transport")
	}
	if opts.SSHUser == "" {
		return nil, fmt.Errorf("-ssh-user is required for the ssh transport")
	}
	if opts.SSHCommand == "" {
		return nil, fmt.Errorf("-ssh-cmd is required for the ssh transport")
	}

	pass := os.Getenv(envSSHPassword)
	if pass == "" {
		if !con.interactive {
			return nil, fmt.Errorf("%s must be set when stdin is not a terminal", envSSHPassword)
		}
		fmt.Fprintf(con.out, "%s@%s password: ", opts.SSHUser, opts.SSHHost)
		secret, err := con.readSecret()
		fmt.Fprintln(con.out)
		if err != nil {
			return nil, fmt.Errorf("read password: %w", err)
		}
		pass = string(secret)
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if !opts.SSHInsecure {
		cb, err := knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeys = cb
	}

	return &xmodem.SSHOpener{
		Addr: opts.SSHHost,
		Config: &ssh.ClientConfig{
			User:            opts.SSHUser,
			Auth:            []ssh.AuthMethod{ssh.Password(pass)},
			HostKeyCallback: hostKeys,
			Timeout:         10 * time.Second,
		},
		Command: opts.SSHCommand,
	}, nil
}

func knownHostsCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locate known_hosts: %w", err)
	}
	cb, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
	if err != nil {
		return nil, fmt.Errorf("load known_hosts (use -ssh-insecure to skip): %w", err)
	}
	return cb, nil
}
