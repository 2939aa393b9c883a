package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soraxas/auto-portforward/internal/model"
)

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		"1234": {
			PID:        1234,
			Name:       "nginx",
			Cwd:        "/etc/nginx",
			Status:     "running",
			CreateTime: "1234567890",
			TCP:        []int{443, 80},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := Encode(testSnapshot())
	require.NoError(t, err)

	body, err := ReadBody(bytes.NewReader(frame))
	require.NoError(t, err)

	decoded, err := Decode(body)
	require.NoError(t, err)
	require.Equal(t, KindData, decoded.Kind)

	rec, ok := decoded.Processes["1234"]
	require.True(t, ok)
	require.Equal(t, "nginx", rec.Name)
	// Ports come back canonical regardless of the order they went in.
	require.Equal(t, []int{80, 443}, rec.TCP)
}

func TestEncodeLogRoundTrip(t *testing.T) {
	frame, err := EncodeLog("agent starting")
	require.NoError(t, err)

	body, err := ReadBody(bytes.NewReader(frame))
	require.NoError(t, err)

	decoded, err := Decode(body)
	require.NoError(t, err)
	require.Equal(t, KindLog, decoded.Kind)
	require.Equal(t, "agent starting", decoded.Message)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"type": "data", "processes"`))
	var dec *DecodeError
	require.ErrorAs(t, err, &dec)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"type": "telemetry"}`))
	var dec *DecodeError
	require.ErrorAs(t, err, &dec)
	require.Contains(t, dec.Error(), "telemetry")
}

func TestReadBodyWaitsForFullFrame(t *testing.T) {
	frame, err := Encode(testSnapshot())
	require.NoError(t, err)

	// Cut the frame short: ReadBody must fail rather than hand back a
	// partial body.
	_, err = ReadBody(bytes.NewReader(frame[:len(frame)-3]))
	require.Error(t, err)
	require.False(t, errors.Is(err, io.EOF) && len(frame) < 4, "prefix read should have succeeded")
}

func TestReadBodyCleanEOF(t *testing.T) {
	_, err := ReadBody(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestFramePrefixMatchesBodyLength(t *testing.T) {
	frame, err := EncodeLog("x")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(frame), 4)
	require.Equal(t, uint32(len(frame)-4), binary.BigEndian.Uint32(frame[:4]))
}
