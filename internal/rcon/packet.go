// Package rcon implements the Minecraft remote-console wire protocol:
// a framed, length-prefixed binary protocol over TCP used to send
// administrative text commands to a running server.
//
// Every packet on the wire is
//
//	length    int32, little-endian, counts all bytes after itself
//	requestID int32, little-endian
//	type      int32, little-endian
//	payload   bytes
//	0x00 0x00 terminator
//
// regardless of host byte order.
package rcon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"wurstmineberg/worldctl/internal/domain"
)

// Packet types. Responses (type 0) double as the login acknowledgment,
// matched by echoing the login request id; a response carrying request
// id -1 signals a rejected password.
const (
	typeResponse = 0
	typeCommand  = 2
	typeLogin    = 3
)

// authFailedID is the request id servers echo on a failed login.
const authFailedID = -1

// packetOverhead is the wire size of a packet minus its payload: the
// requestID and type fields plus the two-byte terminator. The length
// prefix itself is not counted (it counts bytes after itself).
const packetOverhead = 4 + 4 + 2

// maxPayload bounds the payload size we accept from the server. The
// vanilla server fragments anything longer than 4096 bytes, so a
// declared length far beyond that means the stream is corrupt.
const maxPayload = 1 << 20

// ErrMalformed indicates wire data that does not frame correctly: a
// declared length too short to hold a packet, a missing terminator, or
// a truncated payload.
var ErrMalformed = fmt.Errorf("malformed packet: %w", domain.ErrProtocol)

type packet struct {
	id      int32
	typ     int32
	payload []byte
}

// encode writes p to w in wire format.
func encode(w io.Writer, p packet) error {
	buf := make([]byte, 0, 4+packetOverhead+len(p.payload))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(packetOverhead+len(p.payload)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.typ))
	buf = append(buf, p.payload...)
	buf = append(buf, 0x00, 0x00)

	_, err := w.Write(buf)
	return err
}

// decode reads one packet from r. The payload is read to exactly the
// declared length; a short read or a non-zero terminator is ErrMalformed.
func decode(r io.Reader) (packet, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return packet{}, err
	}
	length := int32(binary.LittleEndian.Uint32(lengthBuf[:]))

	if length < packetOverhead || length > packetOverhead+maxPayload {
		return packet{}, fmt.Errorf("%w: declared length %d", ErrMalformed, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return packet{}, fmt.Errorf("%w: truncated body (want %d bytes)", ErrMalformed, length)
		}
		return packet{}, err
	}

	if !bytes.Equal(body[length-2:], []byte{0x00, 0x00}) {
		return packet{}, fmt.Errorf("%w: missing terminator", ErrMalformed)
	}

	return packet{
		id:      int32(binary.LittleEndian.Uint32(body[0:4])),
		typ:     int32(binary.LittleEndian.Uint32(body[4:8])),
		payload: body[8 : length-2],
	}, nil
}
