package remote

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Credentials is the ephemeral login for one sync session, supplied by the
// vendor API and rotated per invocation.
type Credentials struct {
	Host     string
	Port     int // 0 means 22
	User     string
	Password string
}

// Addr returns the host:port dial address.
func (c Credentials) Addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", port))
}

// FileOps is the set of remote-filesystem primitives consumed by the
// transfer engine and the remote scanner. *Session implements it; tests
// substitute an in-memory fake.
type FileOps interface {
	// Lstat returns entry metadata without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// ReadDir lists a remote directory with stat metadata per entry.
	ReadDir(path string) ([]os.FileInfo, error)

	// Mkdir creates a single remote directory with the given mode.
	Mkdir(path string, mode os.FileMode) error

	// Put uploads a local file to a remote path, overwriting it.
	Put(localPath string, remotePath string) error

	// Get downloads a remote file to a local path, overwriting it.
	Get(remotePath string, localPath string) error
}

// Session owns the SSH connection and the SFTP channel for a single sync
// operation. It is not safe for concurrent use: the sync operation that
// opens it is its only user for its whole lifetime.
type Session struct {
	creds   Credentials
	timeout time.Duration
	client  *ssh.Client
	sftp    *sftp.Client
}

// NewSession prepares a session; no connection is made until Connect.
func NewSession(creds Credentials, connectTimeout time.Duration) *Session {
	return &Session{creds: creds, timeout: connectTimeout}
}

// Connect establishes the SSH transport. Idempotent: an already-connected
// session is reused without re-authenticating.
func (s *Session) Connect() error {
	if s.client != nil {
		return nil
	}
	config := &ssh.ClientConfig{
		User:            s.creds.User,
		Auth:            []ssh.AuthMethod{ssh.Password(s.creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.timeout,
	}
	client, err := ssh.Dial("tcp", s.creds.Addr(), config)
	if err != nil {
		if isAuthFailure(err) {
			return fmt.Errorf("%w for %s@%s: %v", ErrAuth, s.creds.User, s.creds.Host, err)
		}
		return fmt.Errorf("%w: couldn't reach %s: %v", ErrNetwork, s.creds.Addr(), err)
	}
	s.client = client
	return nil
}

// SFTP returns the file-transfer channel, connecting and opening it on
// first use. Idempotent per session.
func (s *Session) SFTP() (*sftp.Client, error) {
	if s.sftp != nil {
		return s.sftp, nil
	}
	if err := s.Connect(); err != nil {
		return nil, err
	}
	channel, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't open SFTP channel: %v", ErrNetwork, err)
	}
	s.sftp = channel
	return channel, nil
}

// Close releases the channel and the transport. Safe to call multiple
// times and on a never-connected session; callers defer it so resources
// are released on every exit path.
func (s *Session) Close() error {
	var errs []error
	if s.sftp != nil {
		if err := s.sftp.Close(); err != nil {
			errs = append(errs, err)
		}
		s.sftp = nil
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			errs = append(errs, err)
		}
		s.client = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("error closing session: %v", errors.Join(errs...))
	}
	return nil
}

func (s *Session) Lstat(path string) (os.FileInfo, error) {
	channel, err := s.SFTP()
	if err != nil {
		return nil, err
	}
	return channel.Lstat(path)
}

func (s *Session) ReadDir(path string) ([]os.FileInfo, error) {
	channel, err := s.SFTP()
	if err != nil {
		return nil, err
	}
	return channel.ReadDir(path)
}

func (s *Session) Mkdir(path string, mode os.FileMode) error {
	channel, err := s.SFTP()
	if err != nil {
		return err
	}
	if err := channel.Mkdir(path); err != nil {
		return err
	}
	return channel.Chmod(path, mode)
}

func (s *Session) Put(localPath string, remotePath string) error {
	channel, err := s.SFTP()
	if err != nil {
		return err
	}
	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("couldn't open local file %q: %w", localPath, err)
	}
	defer local.Close()
	target, err := channel.Create(remotePath)
	if err != nil {
		return fmt.Errorf("couldn't create remote file %q: %w", remotePath, err)
	}
	defer target.Close()
	if _, err := io.Copy(target, local); err != nil {
		return fmt.Errorf("upload of %q failed: %w", remotePath, err)
	}
	return target.Close()
}

func (s *Session) Get(remotePath string, localPath string) error {
	channel, err := s.SFTP()
	if err != nil {
		return err
	}
	source, err := channel.Open(remotePath)
	if err != nil {
		return fmt.Errorf("couldn't open remote file %q: %w", remotePath, err)
	}
	defer source.Close()
	target, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("couldn't create local file %q: %w", localPath, err)
	}
	defer target.Close()
	if _, err := io.Copy(target, source); err != nil {
		return fmt.Errorf("download of %q failed: %w", remotePath, err)
	}
	return target.Close()
}

// isAuthFailure tells an authentication rejection apart from a transport
// failure. x/crypto/ssh doesn't export a sentinel for this, so the
// handshake error text is the only signal.
func isAuthFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return false
	}
	return strings.Contains(err.Error(), "unable to authenticate")
}
