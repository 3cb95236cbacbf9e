package streaming

import (
	"bufio"
	"bytes"
	"io"
)

var (
	sseDataPrefix = []byte("data: ")
	sseFrameEnd   = []byte("\n\n")
)

// EncodeFrame wraps one payload as a server-sent-event frame:
// "data: <payload>\n\n".
func EncodeFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(sseDataPrefix)+len(payload)+len(sseFrameEnd))
	frame = append(frame, sseDataPrefix...)
	frame = append(frame, payload...)
	frame = append(frame, sseFrameEnd...)

	return frame
}

// WriteFrame writes one SSE frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := w.Write(EncodeFrame(payload))

	return err
}

// ScanFrames reads an SSE byte stream and invokes fn with the payload of every
// data frame, in arrival order. Lines that are not data lines are ignored.
// Scanning stops at end of stream, on a read error, or when fn returns an
// error.
func ScanFrames(r io.Reader, fn func(payload []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, sseDataPrefix) {
			continue
		}

		payload := bytes.TrimPrefix(line, sseDataPrefix)
		if err := fn(payload); err != nil {
			return err
		}
	}

	return scanner.Err()
}
