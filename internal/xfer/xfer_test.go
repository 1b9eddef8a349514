package xfer_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"j5.nz/rtg/internal/xfer"
)

func TestXmodemSendReceiveRoundTrip(t *testing.T) {
	senderConn, receiverConn := net.Pipe()

	payload := bytes.Repeat([]byte("abcdefghij"), 50) // 500 bytes, several 128-byte blocks

	sendDone := make(chan error, 1)
	go func() {
		r := bytes.NewReader(payload)
		src := func() ([]byte, error) {
			buf := make([]byte, 128)
			n, err := r.Read(buf)
			return buf[:n], err
		}
		_, err := xfer.Send(senderConn, senderConn, src)
		sendDone <- err
	}()

	var received bytes.Buffer
	sink := func(data []byte) error {
		received.Write(data)
		return nil
	}
	n, err := xfer.Receive(receiverConn, receiverConn, sink)
	require.NoError(t, err)
	require.NoError(t, <-sendDone)

	assert.Equal(t, 4*128, n) // 500 bytes arrive as four 128-byte blocks, the last CTRL-Z padded
	assert.True(t, bytes.Equal(payload, received.Bytes()[:len(payload)]))
}

func TestYmodemSendReceiveRoundTrip(t *testing.T) {
	senderConn, receiverConn := net.Pipe()

	payload := bytes.Repeat([]byte("0123456789"), 300) // 3000 bytes, several 1K blocks

	sendDone := make(chan error, 1)
	go func() {
		r := bytes.NewReader(payload)
		src := func() ([]byte, error) {
			buf := make([]byte, 1024)
			n, err := r.Read(buf)
			return buf[:n], err
		}
		_, err := xfer.SendFile(senderConn, senderConn, "data.bin", len(payload), src)
		sendDone <- err
	}()

	var received bytes.Buffer
	name, size, err := xfer.ReceiveFile(receiverConn, receiverConn, func(data []byte) error {
		received.Write(data)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-sendDone)

	assert.Equal(t, "data.bin", name)
	assert.Equal(t, len(payload), size)
	assert.Equal(t, payload, received.Bytes())
}
