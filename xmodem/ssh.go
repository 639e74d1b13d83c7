package xmodem

import (
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// SSHOpener dials an SSH server, starts Command there and uses the
// command's stdin/stdout as the Channel. Typical commands run a sender
// or bridge a remote tty (for example "socat - /dev/ttyUSB0,raw,b9600").
type SSHOpener struct {
	Addr    string
	Config  *ssh.ClientConfig
	Command string
}

func (o *SSHOpener) Open() (Channel, error) {
	client, err := ssh.Dial("tcp", o.Addr, o.Config)
	if err != nil {
		return nil, fmt.Errorf("ssh: dial %s: %w", o.Addr, err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ssh: new session: %w", err)
	}

	ch, err := NewSSHChannel(session, o.Command, client)
	if err != nil {
		session.Close()
		client.Close()
		return nil, err
	}
	return ch, nil
}

// NewSSHChannel starts command on an existing SSH session and returns a
// Channel over its stdin/stdout. Closing the channel closes stdin, the
// session and any extra closers.
func NewSSHChannel(session *ssh.Session, command string, closers ...io.Closer) (Channel, error) {
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}

	if err := session.Start(command); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("ssh: start %q: %w", command, err)
	}

	all := append([]io.Closer{stdin, session}, closers...)
	return NewStreamChannel(stdout, stdin, all...), nil
}
