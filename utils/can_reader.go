//go:build linux || darwin
// +build linux darwin

package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANReader defines the interface for reading CAN frames
type CANReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// SocketCANReader implements CANReader using Einride's socketcan
type SocketCANReader struct {
	iface string
	conn  net.Conn
	recv  *socketcan.Receiver
	stop  func() bool
}

// NewSocketCANReader creates a new SocketCAN reader. The socket is closed when
// ctx is done, which unblocks a pending ReadFrame.
func NewSocketCANReader(ctx context.Context, iface string) (*SocketCANReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}

	return &SocketCANReader{
		iface: iface,
		conn:  conn,
		recv:  socketcan.NewReceiver(conn),
		stop:  context.AfterFunc(ctx, func() { _ = conn.Close() }),
	}, nil
}

// ReadFrame blocks until a data frame arrives. Error frames are skipped.
func (r *SocketCANReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	for r.recv.Receive() {
		if r.recv.HasErrorFrame() {
			continue
		}
		return r.recv.Frame(), nil
	}
	if ctx.Err() != nil {
		return can.Frame{}, ctx.Err()
	}
	if err := r.recv.Err(); err != nil {
		return can.Frame{}, fmt.Errorf("%s: %w", r.iface, err)
	}
	return can.Frame{}, fmt.Errorf("%s: %w", r.iface, io.EOF)
}

// Close closes the CAN socket
func (r *SocketCANReader) Close() error {
	if r.stop != nil {
		r.stop()
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}
	return nil
}
