package xfer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SendFile implements ymodem's single-file send: negotiates CRC mode, sends
// a block-0 header block ("name\0size\0", zero-padded to 128 bytes) per
// original_source/xymodem/ymodem.c, then streams the file body as ordinary
// xmodem 1K blocks, then a final empty block-0 to end the batch.
func SendFile(r io.Reader, w io.Writer, name string, size int, src BlockSource) (int, error) {
	in := newReader(r)
	useCRC, err := awaitStart(in)
	if err != nil {
		return 0, err
	}

	header := make([]byte, shortBlock)
	copy(header, []byte(fmt.Sprintf("%s\x00%d\x00", name, size)))
	if err := sendBlock(in, w, 0, header, useCRC); err != nil {
		return 0, err
	}
	// Receiver re-sends its start byte before the data phase begins.
	if _, err := in.getByte(); err != nil {
		return 0, ErrSync
	}

	seq := byte(1)
	total := 0
	for {
		data, srcErr := src()
		if len(data) == 0 && srcErr == io.EOF {
			break
		}
		block := make([]byte, longBlock)
		copy(block, data)
		for i := len(data); i < longBlock; i++ {
			block[i] = 0
		}
		if err := sendLongBlock(in, w, seq, block, useCRC); err != nil {
			putCancel(w)
			return total, err
		}
		total += len(data)
		seq++
		if srcErr == io.EOF {
			break
		}
		if srcErr != nil {
			putCancel(w)
			return total, srcErr
		}
	}

	for i := 0; i < maxRetrans; i++ {
		writeByte(w, eot)
		b, err := in.getByte()
		if err == nil && b == ack {
			break
		}
	}

	// Empty block-0 header ends the batch.
	empty := make([]byte, shortBlock)
	if _, err := in.getByte(); err != nil { // receiver's renewed 'C'/NAK
		return total, nil
	}
	sendBlock(in, w, 0, empty, useCRC)
	return total, nil
}

func sendLongBlock(in *reader, w io.Writer, seq byte, block []byte, useCRC bool) error {
	for attempt := 0; attempt < maxRetrans; attempt++ {
		writeByte(w, stx)
		writeByte(w, seq)
		writeByte(w, ^seq)
		w.Write(block)
		if useCRC {
			crc := crc16(block)
			writeByte(w, byte(crc>>8))
			writeByte(w, byte(crc))
		} else {
			writeByte(w, checksum(block))
		}
		b, err := in.getByte()
		if err != nil {
			continue
		}
		switch b {
		case ack:
			return nil
		case can:
			return ErrCancelled
		}
	}
	return ErrTooMany
}

// ReceiveFile implements ymodem's single-file receive: reads the block-0
// header to learn the filename and size, ACKs it, then reads the body as
// ordinary xmodem blocks (either 128 or 1024 bytes) into sink until EOT,
// delivering at most size bytes when the header gives a size, and finally
// reads and ACKs the empty block-0 that ends the batch.
func ReceiveFile(r io.Reader, w io.Writer, sink BlockSink) (name string, size int, err error) {
	in := newReader(r)
	useCRC := true
	negotiate := func() {
		if useCRC {
			writeByte(w, 'C')
		} else {
			writeByte(w, nak)
		}
	}
	negotiate()

	header, err := receiveOneBlock(in, w, useCRC, 0)
	if err != nil {
		return "", 0, err
	}
	parts := strings.SplitN(strings.TrimRight(string(header), "\x00"), "\x00", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", 0, io.EOF // empty header: end of batch
	}
	name = parts[0]
	if len(parts) > 1 {
		size, _ = strconv.Atoi(parts[1])
	}
	writeByte(w, ack)
	negotiate()

	expectSeq := byte(1)
	received := 0
	for {
		b, err := in.getByte()
		if err != nil {
			return name, size, ErrSync
		}
		if b == eot {
			writeByte(w, ack)
			negotiate()
			if _, err := receiveOneBlock(in, w, useCRC, 0); err == nil {
				writeByte(w, ack)
			}
			break
		}
		if b != soh && b != stx {
			continue
		}
		blockSize := shortBlock
		if b == stx {
			blockSize = longBlock
		}
		data, ok := readBlock(in, blockSize, useCRC, expectSeq)
		if !ok {
			writeByte(w, nak)
			continue
		}
		want := data
		if size > 0 && received+len(want) > size {
			want = data[:size-received]
		}
		if err := sink(want); err != nil {
			putCancel(w)
			return name, size, err
		}
		received += len(want)
		expectSeq++
		writeByte(w, ack)
	}
	return name, size, nil
}

func receiveOneBlock(in *reader, w io.Writer, useCRC bool, expectSeq byte) ([]byte, error) {
	for retries := 0; retries < maxRetrans; retries++ {
		b, err := in.getByte()
		if err != nil {
			if useCRC {
				writeByte(w, 'C')
			} else {
				writeByte(w, nak)
			}
			continue
		}
		if b != soh && b != stx {
			continue
		}
		size := shortBlock
		if b == stx {
			size = longBlock
		}
		data, ok := readBlock(in, size, useCRC, expectSeq)
		if !ok {
			writeByte(w, nak)
			continue
		}
		return data, nil
	}
	return nil, ErrSync
}
