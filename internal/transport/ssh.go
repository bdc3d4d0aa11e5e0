package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	gtperr "gtpkit/internal/errors"
	"gtpkit/internal/metrics"
	"gtpkit/internal/retry"
	"gtpkit/util"
)

// SSHConfig holds everything needed to reach a remote engine host.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// Backoff governs connection attempts.  Nil means
	// retry.DefaultBackoff.
	Backoff *retry.Backoff
}

// SSHLauncher runs engines on a remote host, one SSH session per
// engine over a shared connection.  The connection is made on the
// first Launch and remade if it drops.
type SSHLauncher struct {
	// Stderr receives the engine's standard error (default os.Stderr).
	Stderr io.Writer

	config  *SSHConfig
	logger  *util.Logger
	metrics *metrics.Collector

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHLauncher returns a launcher that is ready to connect.  m may be
// nil.
func NewSSHLauncher(cfg *SSHConfig, logger *util.Logger, m *metrics.Collector) *SSHLauncher {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &SSHLauncher{Stderr: os.Stderr, config: cfg, logger: logger, metrics: m}
}

// Launch starts c in a new session on the remote host.
func (l *SSHLauncher) Launch(ctx context.Context, c Command) (*Process, error) {
	if c.Dir != "" {
		return nil, l.launchError("start", c, errors.New("can't set a working directory for a remote engine"))
	}

	client, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := client.NewSession()
	if err != nil {
		return nil, l.launchError("session", c, err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, l.launchError("session", c, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, l.launchError("session", c, err)
	}
	sess.Stderr = l.Stderr

	line := c.ShellLine()
	l.logger.Verbose("starting %s on %s", line, l.config)
	if err := sess.Start(line); err != nil {
		sess.Close()
		return nil, l.launchError("start", c, err)
	}

	kill := func() error {
		_ = sess.Signal(ssh.SIGKILL)
		return closeSession(sess)
	}
	return NewProcess(stdin, sessionOutput{stdout, sess}, sess.Wait, kill), nil
}

// Close shuts down the SSH connection.
func (l *SSHLauncher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client == nil {
		return nil
	}
	err := l.client.Close()
	l.client = nil
	return err
}

func (l *SSHLauncher) launchError(op string, c Command, err error) error {
	return &gtperr.LaunchError{Op: op, Command: c.String(), Host: l.config.Host, Port: l.config.Port, Err: err}
}

func (l *SSHLauncher) hostError(op string, retryable bool, err error) error {
	return &gtperr.LaunchError{Op: op, Host: l.config.Host, Port: l.config.Port, Retryable: retryable, Err: err}
}

// connect returns the live client, dialling if there is none.
func (l *SSHLauncher) connect(ctx context.Context) (*ssh.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	authMethods, err := BuildAuthMethods(l.config)
	if err != nil {
		return nil, l.hostError("auth", false, err)
	}
	hkCallback, err := hostKeyCallback(l.config)
	if err != nil {
		return nil, l.hostError("hostkey", false, err)
	}
	sshCfg := &ssh.ClientConfig{
		User:            l.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         l.config.ConnTimeout,
	}

	b := retry.DefaultBackoff()
	if l.config.Backoff != nil {
		copied := *l.config.Backoff
		b = &copied
	}
	b.Retryable = gtperr.IsRetryable
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		l.metrics.LaunchRetry()
		l.logger.Verbose("attempt %d failed: %v (retrying in %v)", attempt, err, wait.Round(time.Millisecond))
	}

	addr := net.JoinHostPort(l.config.Host, strconv.Itoa(l.config.Port))
	var client *ssh.Client
	err = b.Do(ctx, func(int) error {
		var derr error
		client, derr = l.dial(ctx, addr, sshCfg)
		return derr
	})
	if err != nil {
		return nil, err
	}

	l.client = client
	go l.monitor(client)
	return client, nil
}

func (l *SSHLauncher) dial(ctx context.Context, addr string, sshCfg *ssh.ClientConfig) (*ssh.Client, error) {
	l.logger.Debug("SSH: dialing %s", l.config)

	dialer := net.Dialer{Timeout: l.config.ConnTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, l.hostError("dial", ctx.Err() == nil, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return nil, l.hostError("handshake", isDropped(err), err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// isDropped reports a handshake that failed because the connection
// went away, rather than because it was refused.
func isDropped(err error) bool {
	var opErr *net.OpError
	return errors.Is(err, io.EOF) || errors.As(err, &opErr)
}

// monitor blocks until the connection closes and forgets the client so
// the next Launch reconnects.
func (l *SSHLauncher) monitor(client *ssh.Client) {
	err := client.Wait()

	l.mu.Lock()
	if l.client == client {
		l.client = nil
	}
	l.mu.Unlock()

	if err != nil {
		l.logger.Debug("SSH connection to %s closed: %v", l.config.Host, err)
	} else {
		l.logger.Debug("SSH connection to %s closed", l.config.Host)
	}
}

// sessionOutput closes the session along with the engine's stdout.
type sessionOutput struct {
	io.Reader
	sess *ssh.Session
}

func (o sessionOutput) Close() error { return closeSession(o.sess) }

func closeSession(sess *ssh.Session) error {
	if err := sess.Close(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// String describes the remote host in messages.
func (c *SSHConfig) String() string {
	host := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	if c.User != "" {
		return fmt.Sprintf("%s@%s", c.User, host)
	}
	return host
}
