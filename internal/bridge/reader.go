package bridge

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/wire"
)

// readLoop is the bridge's background reader. It runs on a dedicated
// goroutine until the finished flag is set or the peer goes away, decoding
// frames and publishing changed snapshots into the latest-value cell.
//
// The length prefix is read under a bounded deadline so the finished flag
// is observed between attempts — a timeout there is expected and simply
// continues the loop. The body read is effectively blocking: the prefix
// guarantees its size, so the peer's framing contract bounds it.
//
// Whatever ends the loop, the SSH subprocess is always put through
// graceful-then-forceful termination before the goroutine returns.
func (b *Bridge) readLoop() {
	defer close(b.readerDone)
	defer b.terminateSSH()

	var lastCommitted model.Snapshot
	var prefix [4]byte

	for !b.finished.Load() {
		_ = b.conn.SetReadDeadline(time.Now().Add(b.opts.ReadPollTimeout))
		if _, err := io.ReadFull(b.conn, prefix[:]); err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				slog.Debug("connection closed by remote", "host", b.host)
			} else {
				slog.Debug("bridge socket error", "host", b.host, "error", err)
			}
			return
		}
		length := binary.BigEndian.Uint32(prefix[:])

		body := make([]byte, length)
		_ = b.conn.SetReadDeadline(time.Time{})
		if _, err := io.ReadFull(b.conn, body); err != nil {
			slog.Debug("bridge socket error mid-frame", "host", b.host, "error", err)
			return
		}

		frame, err := wire.Decode(body)
		if err != nil {
			var dec *wire.DecodeError
			if errors.As(err, &dec) {
				// One bad frame never takes the connection down.
				slog.Error("dropping malformed frame", "host", b.host, "error", err)
				continue
			}
			slog.Error("frame decode failed", "host", b.host, "error", err)
			return
		}

		switch frame.Kind {
		case wire.KindLog:
			slog.Info("remote", "host", b.host, "message", frame.Message)
		case wire.KindData:
			// Equal-content frames are dropped so consumers never see
			// spurious "new data" signals.
			if lastCommitted != nil && frame.Processes.Equal(lastCommitted) {
				continue
			}
			b.latest.Publish(frame.Processes)
			lastCommitted = frame.Processes
		}
	}
}
