package utils

import (
	"io"
	"net"
	"os"
	"time"
)

// Stdio is a net.Conn over a reader and a writer, stdin and stdout unless
// NewStdio is given others.
type Stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

// NewStdio returns a Stdio reading from in and writing to out. Nil streams
// fall back to os.Stdin and os.Stdout.
func NewStdio(in io.ReadCloser, out io.WriteCloser) Stdio {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return Stdio{in: in, out: out}
}

// Read implements io.Reader interface.
func (s Stdio) Read(b []byte) (int, error) { return s.in.Read(b) }

// Write implements io.Writer interface.
func (s Stdio) Write(b []byte) (int, error) { return s.out.Write(b) }

// Close implements io.Closer interface.
func (s Stdio) Close() error {
	if err := s.in.Close(); err != nil {
		return err
	}
	return s.out.Close()
}

// LocalAddr implements net.Conn interface.
func (s Stdio) LocalAddr() net.Addr { return s }

// RemoteAddr implements net.Conn interface.
func (s Stdio) RemoteAddr() net.Addr { return s }

// SetDeadline implements net.Conn interface.
func (Stdio) SetDeadline(time.Time) error { return nil }

// SetReadDeadline implements net.Conn interface.
func (Stdio) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline implements net.Conn interface.
func (Stdio) SetWriteDeadline(time.Time) error { return nil }

// Network implements net.Addr interface.
func (Stdio) Network() string { return "Stdio" }

// String implements net.Addr interface.
func (Stdio) String() string { return "Stdio" }
