// Package agent implements the snapshot loop that runs on the target host.
//
// The controller never copies code to the target: this same binary is the
// agent artifact. The bridge's remote command runs `auto-portforward agent
// <port>`, which dials the reverse-tunneled loopback port and enters Run.
package agent

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/soraxas/auto-portforward/internal/procscan"
	"github.com/soraxas/auto-portforward/internal/util"
	"github.com/soraxas/auto-portforward/internal/wire"
)

// Dial connects to the controller's listener through the reverse tunnel.
func Dial(port int) (net.Conn, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("dial controller on port %d: %w", port, err)
	}
	return conn, nil
}

// Run executes the agent cycle until ctx is cancelled or a cycle fails:
// enumerate listening ports and owning processes, encode a data frame,
// write it, sleep, repeat. There is never more than one outstanding frame;
// if the write blocks or fails the loop aborts rather than queuing, and the
// peer observes the closed connection.
//
// A zero interval selects the default cadence.
func Run(ctx context.Context, conn io.Writer, interval time.Duration) error {
	if interval <= 0 {
		interval = util.AgentInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := cycle(conn); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func cycle(conn io.Writer) error {
	snap, err := procscan.Snapshot()
	if err != nil {
		return fmt.Errorf("enumerate processes: %w", err)
	}
	frame, err := wire.Encode(snap)
	if err != nil {
		return err
	}
	return wire.WriteFrame(conn, frame)
}
