// SPDX-FileCopyrightText: 2026 The goquic Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package wire

import (
	"fmt"

	"github.com/dtn7/goquic/internal/protocol"
)

// FrameType is the varint-encoded frame type from RFC 9000 §19, extended
// with two experimental partial-reliability frame types (MIN_STREAM_DATA /
// EXPIRED_STREAM_DATA), assigned from the private-use range above the
// IANA-registered space.
type FrameType uint64

const (
	FrameTypePadding       FrameType = 0x00
	FrameTypePing          FrameType = 0x01
	FrameTypeAck           FrameType = 0x02
	FrameTypeAckECN        FrameType = 0x03
	FrameTypeResetStream   FrameType = 0x04
	FrameTypeStopSending   FrameType = 0x05
	FrameTypeCrypto        FrameType = 0x06
	FrameTypeNewToken      FrameType = 0x07
	frameTypeStreamBase    FrameType = 0x08 // 0x08-0x0f, low 3 bits are OFF/LEN/FIN flags
	FrameTypeMaxData       FrameType = 0x10
	FrameTypeMaxStreamData FrameType = 0x11
	FrameTypeMaxStreamsBidi FrameType = 0x12
	FrameTypeMaxStreamsUni FrameType = 0x13
	FrameTypeDataBlocked        FrameType = 0x14
	FrameTypeStreamDataBlocked  FrameType = 0x15
	FrameTypeStreamsBlockedBidi FrameType = 0x16
	FrameTypeStreamsBlockedUni  FrameType = 0x17
	FrameTypeNewConnectionID    FrameType = 0x18
	FrameTypeRetireConnectionID FrameType = 0x19
	FrameTypePathChallenge      FrameType = 0x1a
	FrameTypePathResponse       FrameType = 0x1b
	FrameTypeConnectionClose    FrameType = 0x1c
	FrameTypeApplicationClose   FrameType = 0x1d
	FrameTypeHandshakeDone      FrameType = 0x1e

	// Experimental partial-reliability extension, private-use range.
	FrameTypeMinStreamData     FrameType = 0x30
	FrameTypeExpiredStreamData FrameType = 0x31
)

// Frame is implemented by every frame type this client parses or emits.
type Frame interface {
	Type() FrameType
	Append(buf []byte) ([]byte, error)
}

// ParseFrame parses one frame from the front of data, returning the frame
// and the number of bytes consumed.
func ParseFrame(data []byte) (Frame, int, error) {
	typ, n, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	rest := data[n:]

	switch ft := FrameType(typ); {
	case ft == FrameTypePadding:
		count := 1
		for count-1 < len(rest) && rest[count-1] == 0 {
			count++
		}
		return &PaddingFrame{Count: count}, n - 1 + count, nil
	case ft == FrameTypePing:
		return &PingFrame{}, n, nil
	case ft == FrameTypeAck || ft == FrameTypeAckECN:
		return parseAck(rest, n, ft == FrameTypeAckECN)
	case ft == FrameTypeResetStream:
		return parseResetStream(rest, n)
	case ft == FrameTypeStopSending:
		return parseStopSending(rest, n)
	case ft == FrameTypeCrypto:
		return parseCrypto(rest, n)
	case ft == FrameTypeNewToken:
		return parseNewToken(rest, n)
	case typ >= uint64(frameTypeStreamBase) && typ <= uint64(frameTypeStreamBase)+7:
		return parseStream(rest, n, byte(typ))
	case ft == FrameTypeMaxData:
		return parseVarIntFrame(rest, n, func(v uint64) Frame { return &MaxDataFrame{Maximum: v} })
	case ft == FrameTypeMaxStreamData:
		return parseStreamVarInt(rest, n, func(id protocol.StreamID, v uint64) Frame {
			return &MaxStreamDataFrame{StreamID: id, Maximum: v}
		})
	case ft == FrameTypeMaxStreamsBidi || ft == FrameTypeMaxStreamsUni:
		return parseVarIntFrame(rest, n, func(v uint64) Frame {
			return &MaxStreamsFrame{Bidi: ft == FrameTypeMaxStreamsBidi, Maximum: v}
		})
	case ft == FrameTypeDataBlocked:
		return parseVarIntFrame(rest, n, func(v uint64) Frame { return &DataBlockedFrame{Maximum: v} })
	case ft == FrameTypeStreamDataBlocked:
		return parseStreamVarInt(rest, n, func(id protocol.StreamID, v uint64) Frame {
			return &StreamDataBlockedFrame{StreamID: id, Maximum: v}
		})
	case ft == FrameTypeStreamsBlockedBidi || ft == FrameTypeStreamsBlockedUni:
		return parseVarIntFrame(rest, n, func(v uint64) Frame {
			return &StreamsBlockedFrame{Bidi: ft == FrameTypeStreamsBlockedBidi, Maximum: v}
		})
	case ft == FrameTypeNewConnectionID:
		return parseNewConnectionID(rest, n)
	case ft == FrameTypeRetireConnectionID:
		return parseVarIntFrame(rest, n, func(v uint64) Frame { return &RetireConnectionIDFrame{SequenceNumber: v} })
	case ft == FrameTypePathChallenge:
		return parsePathData(rest, n, false)
	case ft == FrameTypePathResponse:
		return parsePathData(rest, n, true)
	case ft == FrameTypeConnectionClose || ft == FrameTypeApplicationClose:
		return parseConnectionClose(rest, n, ft == FrameTypeApplicationClose)
	case ft == FrameTypeHandshakeDone:
		return &HandshakeDoneFrame{}, n, nil
	case ft == FrameTypeMinStreamData:
		return parseMinStreamData(rest, n)
	case ft == FrameTypeExpiredStreamData:
		return parseStreamVarInt(rest, n, func(id protocol.StreamID, v uint64) Frame {
			return &ExpiredStreamDataFrame{StreamID: id, Offset: v}
		})
	default:
		return nil, 0, fmt.Errorf("wire: unknown frame type %#x", typ)
	}
}

// --- PADDING / PING ---

type PaddingFrame struct{ Count int }

func (f *PaddingFrame) Type() FrameType { return FrameTypePadding }
func (f *PaddingFrame) Append(buf []byte) ([]byte, error) {
	for i := 0; i < f.Count; i++ {
		buf = append(buf, 0)
	}
	return buf, nil
}

type PingFrame struct{}

func (f *PingFrame) Type() FrameType { return FrameTypePing }
func (f *PingFrame) Append(buf []byte) ([]byte, error) {
	return WriteVarInt(buf, uint64(FrameTypePing))
}

// --- ACK ---

type AckFrame struct {
	LargestAcked uint64
	Delay        uint64
	// Blocks alternate [start,end] ranges of acknowledged packet numbers,
	// largest range first.
	Blocks [][2]uint64
	ECN    bool
	ECT0, ECT1, CE uint64
}

func (f *AckFrame) Type() FrameType {
	if f.ECN {
		return FrameTypeAckECN
	}
	return FrameTypeAck
}

func (f *AckFrame) Append(buf []byte) ([]byte, error) {
	var err error
	buf, err = WriteVarInt(buf, uint64(f.Type()))
	if err != nil {
		return nil, err
	}
	buf, _ = WriteVarInt(buf, f.LargestAcked)
	buf, _ = WriteVarInt(buf, f.Delay)
	buf, _ = WriteVarInt(buf, uint64(len(f.Blocks)-1))
	for i, block := range f.Blocks {
		rangeLen := block[1] - block[0]
		buf, _ = WriteVarInt(buf, rangeLen)
		if i < len(f.Blocks)-1 {
			gap := block[0] - f.Blocks[i+1][1] - 2
			buf, _ = WriteVarInt(buf, gap)
		}
	}
	if f.ECN {
		buf, _ = WriteVarInt(buf, f.ECT0)
		buf, _ = WriteVarInt(buf, f.ECT1)
		buf, _ = WriteVarInt(buf, f.CE)
	}
	return buf, nil
}

func parseAck(data []byte, consumedSoFar int, ecn bool) (Frame, int, error) {
	off := 0
	largest, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	delay, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	rangeCount, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	f := &AckFrame{LargestAcked: largest, Delay: delay, ECN: ecn}

	firstLen, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	end := largest
	start := end - firstLen
	f.Blocks = append(f.Blocks, [2]uint64{start, end})

	for i := uint64(0); i < rangeCount; i++ {
		gap, n, err := ReadVarInt(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		blockLen, n, err := ReadVarInt(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		end = start - gap - 2
		start = end - blockLen
		f.Blocks = append(f.Blocks, [2]uint64{start, end})
	}

	if ecn {
		for i := 0; i < 3; i++ {
			v, n, err := ReadVarInt(data[off:])
			if err != nil {
				return nil, 0, err
			}
			off += n
			switch i {
			case 0:
				f.ECT0 = v
			case 1:
				f.ECT1 = v
			case 2:
				f.CE = v
			}
		}
	}

	return f, consumedSoFar + off, nil
}

// --- RESET_STREAM / STOP_SENDING ---

type ResetStreamFrame struct {
	StreamID  protocol.StreamID
	ErrorCode uint64
	FinalSize uint64
}

func (f *ResetStreamFrame) Type() FrameType { return FrameTypeResetStream }
func (f *ResetStreamFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeResetStream))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	buf, _ = WriteVarInt(buf, f.ErrorCode)
	buf, _ = WriteVarInt(buf, f.FinalSize)
	return buf, nil
}

func parseResetStream(data []byte, consumed int) (Frame, int, error) {
	id, n1, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	code, n2, err := ReadVarInt(data[n1:])
	if err != nil {
		return nil, 0, err
	}
	size, n3, err := ReadVarInt(data[n1+n2:])
	if err != nil {
		return nil, 0, err
	}
	return &ResetStreamFrame{StreamID: protocol.StreamID(id), ErrorCode: code, FinalSize: size}, consumed + n1 + n2 + n3, nil
}

type StopSendingFrame struct {
	StreamID  protocol.StreamID
	ErrorCode uint64
}

func (f *StopSendingFrame) Type() FrameType { return FrameTypeStopSending }
func (f *StopSendingFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeStopSending))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	buf, _ = WriteVarInt(buf, f.ErrorCode)
	return buf, nil
}

func parseStopSending(data []byte, consumed int) (Frame, int, error) {
	id, n1, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	code, n2, err := ReadVarInt(data[n1:])
	if err != nil {
		return nil, 0, err
	}
	return &StopSendingFrame{StreamID: protocol.StreamID(id), ErrorCode: code}, consumed + n1 + n2, nil
}

// --- CRYPTO / NEW_TOKEN ---

// CryptoFrame carries TLS handshake bytes tagged with an offset; the
// encryption level it belongs to is implicit in which packet carried it.
type CryptoFrame struct {
	Offset uint64
	Data   []byte
}

func (f *CryptoFrame) Type() FrameType { return FrameTypeCrypto }
func (f *CryptoFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeCrypto))
	buf, _ = WriteVarInt(buf, f.Offset)
	buf, _ = WriteVarInt(buf, uint64(len(f.Data)))
	buf = append(buf, f.Data...)
	return buf, nil
}

func parseCrypto(data []byte, consumed int) (Frame, int, error) {
	offset, n1, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	length, n2, err := ReadVarInt(data[n1:])
	if err != nil {
		return nil, 0, err
	}
	start := n1 + n2
	if start+int(length) > len(data) {
		return nil, 0, fmt.Errorf("wire: CRYPTO frame truncated")
	}
	payload := append([]byte(nil), data[start:start+int(length)]...)
	return &CryptoFrame{Offset: offset, Data: payload}, consumed + start + int(length), nil
}

type NewTokenFrame struct{ Token []byte }

func (f *NewTokenFrame) Type() FrameType { return FrameTypeNewToken }
func (f *NewTokenFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeNewToken))
	buf, _ = WriteVarInt(buf, uint64(len(f.Token)))
	buf = append(buf, f.Token...)
	return buf, nil
}

func parseNewToken(data []byte, consumed int) (Frame, int, error) {
	length, n, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	if n+int(length) > len(data) {
		return nil, 0, fmt.Errorf("wire: NEW_TOKEN frame truncated")
	}
	token := append([]byte(nil), data[n:n+int(length)]...)
	return &NewTokenFrame{Token: token}, consumed + n + int(length), nil
}

// --- STREAM ---

type StreamFrame struct {
	StreamID protocol.StreamID
	Offset   uint64
	Data     []byte
	Fin      bool
}

func (f *StreamFrame) Type() FrameType { return frameTypeStreamBase }
func (f *StreamFrame) Append(buf []byte) ([]byte, error) {
	typ := byte(frameTypeStreamBase) | 0x04 /* OFF */ | 0x02 /* LEN */
	if f.Fin {
		typ |= 0x01
	}
	buf, _ = WriteVarInt(buf, uint64(typ))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	buf, _ = WriteVarInt(buf, f.Offset)
	buf, _ = WriteVarInt(buf, uint64(len(f.Data)))
	buf = append(buf, f.Data...)
	return buf, nil
}

func parseStream(data []byte, consumed int, typeByte byte) (Frame, int, error) {
	off := 0
	id, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	var offset uint64
	if typeByte&0x04 != 0 {
		offset, n, err = ReadVarInt(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
	}

	var length uint64
	if typeByte&0x02 != 0 {
		length, n, err = ReadVarInt(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
	} else {
		length = uint64(len(data) - off)
	}

	if off+int(length) > len(data) {
		return nil, 0, fmt.Errorf("wire: STREAM frame truncated")
	}
	payload := append([]byte(nil), data[off:off+int(length)]...)
	off += int(length)

	return &StreamFrame{
		StreamID: protocol.StreamID(id),
		Offset:   offset,
		Data:     payload,
		Fin:      typeByte&0x01 != 0,
	}, consumed + off, nil
}

// --- flow control: MAX_DATA / MAX_STREAM_DATA / MAX_STREAMS / *_BLOCKED ---

type MaxDataFrame struct{ Maximum uint64 }

func (f *MaxDataFrame) Type() FrameType { return FrameTypeMaxData }
func (f *MaxDataFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeMaxData))
	return WriteVarInt(buf, f.Maximum)
}

type MaxStreamDataFrame struct {
	StreamID protocol.StreamID
	Maximum  uint64
}

func (f *MaxStreamDataFrame) Type() FrameType { return FrameTypeMaxStreamData }
func (f *MaxStreamDataFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeMaxStreamData))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	return WriteVarInt(buf, f.Maximum)
}

type MaxStreamsFrame struct {
	Bidi    bool
	Maximum uint64
}

func (f *MaxStreamsFrame) Type() FrameType {
	if f.Bidi {
		return FrameTypeMaxStreamsBidi
	}
	return FrameTypeMaxStreamsUni
}
func (f *MaxStreamsFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(f.Type()))
	return WriteVarInt(buf, f.Maximum)
}

type DataBlockedFrame struct{ Maximum uint64 }

func (f *DataBlockedFrame) Type() FrameType { return FrameTypeDataBlocked }
func (f *DataBlockedFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeDataBlocked))
	return WriteVarInt(buf, f.Maximum)
}

type StreamDataBlockedFrame struct {
	StreamID protocol.StreamID
	Maximum  uint64
}

func (f *StreamDataBlockedFrame) Type() FrameType { return FrameTypeStreamDataBlocked }
func (f *StreamDataBlockedFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeStreamDataBlocked))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	return WriteVarInt(buf, f.Maximum)
}

type StreamsBlockedFrame struct {
	Bidi    bool
	Maximum uint64
}

func (f *StreamsBlockedFrame) Type() FrameType {
	if f.Bidi {
		return FrameTypeStreamsBlockedBidi
	}
	return FrameTypeStreamsBlockedUni
}
func (f *StreamsBlockedFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(f.Type()))
	return WriteVarInt(buf, f.Maximum)
}

func parseVarIntFrame(data []byte, consumed int, build func(uint64) Frame) (Frame, int, error) {
	v, n, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	return build(v), consumed + n, nil
}

func parseStreamVarInt(data []byte, consumed int, build func(protocol.StreamID, uint64) Frame) (Frame, int, error) {
	id, n1, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	v, n2, err := ReadVarInt(data[n1:])
	if err != nil {
		return nil, 0, err
	}
	return build(protocol.StreamID(id), v), consumed + n1 + n2, nil
}

// --- connection ID management ---

type NewConnectionIDFrame struct {
	SequenceNumber uint64
	RetirePriorTo  uint64
	ConnectionID   protocol.ConnectionID
	ResetToken     [16]byte
}

func (f *NewConnectionIDFrame) Type() FrameType { return FrameTypeNewConnectionID }
func (f *NewConnectionIDFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeNewConnectionID))
	buf, _ = WriteVarInt(buf, f.SequenceNumber)
	buf, _ = WriteVarInt(buf, f.RetirePriorTo)
	buf = append(buf, byte(f.ConnectionID.Len()))
	buf = append(buf, f.ConnectionID.Bytes()...)
	buf = append(buf, f.ResetToken[:]...)
	return buf, nil
}

func parseNewConnectionID(data []byte, consumed int) (Frame, int, error) {
	seq, n1, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	retire, n2, err := ReadVarInt(data[n1:])
	if err != nil {
		return nil, 0, err
	}
	off := n1 + n2
	if off >= len(data) {
		return nil, 0, fmt.Errorf("wire: NEW_CONNECTION_ID truncated")
	}
	cidLen := int(data[off])
	off++
	if off+cidLen+16 > len(data) {
		return nil, 0, fmt.Errorf("wire: NEW_CONNECTION_ID truncated")
	}
	cid := make(protocol.ConnectionID, cidLen)
	copy(cid, data[off:off+cidLen])
	off += cidLen
	var token [16]byte
	copy(token[:], data[off:off+16])
	off += 16
	return &NewConnectionIDFrame{SequenceNumber: seq, RetirePriorTo: retire, ConnectionID: cid, ResetToken: token}, consumed + off, nil
}

type RetireConnectionIDFrame struct{ SequenceNumber uint64 }

func (f *RetireConnectionIDFrame) Type() FrameType { return FrameTypeRetireConnectionID }
func (f *RetireConnectionIDFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeRetireConnectionID))
	return WriteVarInt(buf, f.SequenceNumber)
}

// --- path validation ---

type PathChallengeFrame struct{ Data [8]byte }

func (f *PathChallengeFrame) Type() FrameType { return FrameTypePathChallenge }
func (f *PathChallengeFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypePathChallenge))
	return append(buf, f.Data[:]...), nil
}

type PathResponseFrame struct{ Data [8]byte }

func (f *PathResponseFrame) Type() FrameType { return FrameTypePathResponse }
func (f *PathResponseFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypePathResponse))
	return append(buf, f.Data[:]...), nil
}

func parsePathData(data []byte, consumed int, response bool) (Frame, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("wire: path challenge/response truncated")
	}
	var d [8]byte
	copy(d[:], data[:8])
	if response {
		return &PathResponseFrame{Data: d}, consumed + 8, nil
	}
	return &PathChallengeFrame{Data: d}, consumed + 8, nil
}

// --- connection close ---

type ConnectionCloseFrame struct {
	IsApplication bool
	ErrorCode     uint64
	FrameType     uint64 // only meaningful for the transport variant
	ReasonPhrase  string
}

func (f *ConnectionCloseFrame) Type() FrameType {
	if f.IsApplication {
		return FrameTypeApplicationClose
	}
	return FrameTypeConnectionClose
}

func (f *ConnectionCloseFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(f.Type()))
	buf, _ = WriteVarInt(buf, f.ErrorCode)
	if !f.IsApplication {
		buf, _ = WriteVarInt(buf, f.FrameType)
	}
	buf, _ = WriteVarInt(buf, uint64(len(f.ReasonPhrase)))
	buf = append(buf, f.ReasonPhrase...)
	return buf, nil
}

func parseConnectionClose(data []byte, consumed int, application bool) (Frame, int, error) {
	code, n, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	off := n
	var frameType uint64
	if !application {
		frameType, n, err = ReadVarInt(data[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
	}
	length, n, err := ReadVarInt(data[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	if off+int(length) > len(data) {
		return nil, 0, fmt.Errorf("wire: CONNECTION_CLOSE truncated")
	}
	reason := string(data[off : off+int(length)])
	off += int(length)
	return &ConnectionCloseFrame{IsApplication: application, ErrorCode: code, FrameType: frameType, ReasonPhrase: reason}, consumed + off, nil
}

// --- misc ---

type HandshakeDoneFrame struct{}

func (f *HandshakeDoneFrame) Type() FrameType { return FrameTypeHandshakeDone }
func (f *HandshakeDoneFrame) Append(buf []byte) ([]byte, error) {
	return WriteVarInt(buf, uint64(FrameTypeHandshakeDone))
}

// --- experimental partial reliability ---

// MinStreamDataFrame lets a sender retroactively raise a stream's minimum
// readable offset, abandoning any data below it - the experimental
// partial-reliability extension this package's FrameType doc describes.
type MinStreamDataFrame struct {
	StreamID      protocol.StreamID
	MaximumData   uint64
	MinimumOffset uint64
}

func (f *MinStreamDataFrame) Type() FrameType { return FrameTypeMinStreamData }
func (f *MinStreamDataFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeMinStreamData))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	buf, _ = WriteVarInt(buf, f.MaximumData)
	return WriteVarInt(buf, f.MinimumOffset)
}

func parseMinStreamData(data []byte, consumed int) (Frame, int, error) {
	id, n1, err := ReadVarInt(data)
	if err != nil {
		return nil, 0, err
	}
	maxData, n2, err := ReadVarInt(data[n1:])
	if err != nil {
		return nil, 0, err
	}
	minOff, n3, err := ReadVarInt(data[n1+n2:])
	if err != nil {
		return nil, 0, err
	}
	return &MinStreamDataFrame{StreamID: protocol.StreamID(id), MaximumData: maxData, MinimumOffset: minOff}, consumed + n1 + n2 + n3, nil
}

// ExpiredStreamDataFrame tells the peer that data up to Offset has been
// abandoned and will never be (re)sent.
type ExpiredStreamDataFrame struct {
	StreamID protocol.StreamID
	Offset   uint64
}

func (f *ExpiredStreamDataFrame) Type() FrameType { return FrameTypeExpiredStreamData }
func (f *ExpiredStreamDataFrame) Append(buf []byte) ([]byte, error) {
	buf, _ = WriteVarInt(buf, uint64(FrameTypeExpiredStreamData))
	buf, _ = WriteVarInt(buf, uint64(f.StreamID))
	return WriteVarInt(buf, f.Offset)
}
