// Package ipc provides inter-process communication between the echotyped
// daemon and control clients.
//
// The protocol is a fixed 16-byte binary header followed by a JSON payload.
// Requests and responses are correlated by request ID.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Protocol version for compatibility checking.
const (
	ProtocolVersion = 1
	ProtocolMagic   = 0x45544950 // "ETIP"
)

// MessageType identifies the type of IPC message.
type MessageType uint16

const (
	// Control messages (0x00xx)
	MsgPing  MessageType = 0x0001
	MsgPong  MessageType = 0x0002
	MsgError MessageType = 0x0003
	MsgQuit  MessageType = 0x0004
	MsgAck   MessageType = 0x0005

	// Status messages (0x01xx)
	MsgStatusRequest  MessageType = 0x0100
	MsgStatusResponse MessageType = 0x0101

	// Journal control (0x02xx)
	MsgPause           MessageType = 0x0200
	MsgResume          MessageType = 0x0201
	MsgTogglePause     MessageType = 0x0202
	MsgPauseStateResp  MessageType = 0x0203
	MsgNewSegment      MessageType = 0x0204
	MsgNewSegmentResp  MessageType = 0x0205
	MsgOpenLogs        MessageType = 0x0206
	MsgOpenLogsResp    MessageType = 0x0207

	// Stats (0x03xx)
	MsgStatsRequest  MessageType = 0x0300
	MsgStatsResponse MessageType = 0x0301

	// Autostart (0x04xx)
	MsgAutostartSet  MessageType = 0x0400
	MsgAutostartResp MessageType = 0x0401
)

// Header is the fixed-size message header (16 bytes).
type Header struct {
	Magic     uint32
	Version   uint8
	Flags     uint8
	Type      MessageType
	RequestID uint32
	Length    uint32 // Payload length, not including header
}

// HeaderSize is the size of the header in bytes.
const HeaderSize = 16

// FlagJSON marks a JSON payload. All current messages use it.
const FlagJSON uint8 = 0x01

// maxPayload caps a single message payload.
const maxPayload = 4 * 1024 * 1024

// Message wraps a header and payload.
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, requestID uint32, payload []byte) *Message {
	return &Message{
		Header: Header{
			Magic:     ProtocolMagic,
			Version:   ProtocolVersion,
			Flags:     FlagJSON,
			Type:      msgType,
			RequestID: requestID,
			Length:    uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Write writes the header to a writer.
func (h *Header) Write(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads a header from a reader.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	h := &Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      MessageType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}

	if h.Magic != ProtocolMagic {
		return nil, fmt.Errorf("invalid magic number: %x", h.Magic)
	}
	if h.Version > ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}
	return h, nil
}

// Write writes the message to a writer.
func (m *Message) Write(w io.Writer) error {
	if err := m.Header.Write(w); err != nil {
		return err
	}
	if len(m.Payload) > 0 {
		_, err := w.Write(m.Payload)
		return err
	}
	return nil
}

// ReadMessage reads a complete message from a reader.
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	m := &Message{Header: *h}
	if h.Length > 0 {
		if h.Length > maxPayload {
			return nil, fmt.Errorf("payload too large: %d bytes", h.Length)
		}
		m.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Request/response payloads

// ErrorResponse is sent when an operation fails.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrUnknown        = 1
	ErrInvalidRequest = 2
	ErrInternalError  = 3
	ErrNotAvailable   = 4
)

// StatusResponse contains daemon status.
type StatusResponse struct {
	Version       string    `json:"version"`
	StartedAt     time.Time `json:"started_at"`
	Uptime        string    `json:"uptime"`
	Paused        bool      `json:"paused"`
	JournalDir    string    `json:"journal_dir"`
	JournalFile   string    `json:"journal_file"`
	Segment       uint32    `json:"segment"`
	CaptureActive bool      `json:"capture_active"`
	CaptureNote   string    `json:"capture_note,omitempty"`
	DroppedEvents uint64    `json:"dropped_events"`
}

// PauseStateResponse reports the journal pause state after a control
// command.
type PauseStateResponse struct {
	Paused bool `json:"paused"`
}

// NewSegmentResponse reports the file opened by a segment rotation.
type NewSegmentResponse struct {
	Segment uint32 `json:"segment"`
	Path    string `json:"path"`
}

// OpenLogsResponse reports the journal directory to open.
type OpenLogsResponse struct {
	Dir string `json:"dir"`
}

// StatsRequest asks for daily counters.
type StatsRequest struct {
	Days int `json:"days,omitempty"`
}

// DailyStats mirrors one day of counters.
type DailyStats struct {
	Day        string `json:"day"`
	Chars      int64  `json:"chars"`
	Enters     int64  `json:"enters"`
	Backspaces int64  `json:"backspaces"`
	Pastes     int64  `json:"pastes"`
	PasteChars int64  `json:"paste_chars"`
	Segments   int64  `json:"segments"`
}

// StatsResponse contains daily counters, newest first.
type StatsResponse struct {
	Days []DailyStats `json:"days"`
}

// AutostartSetRequest enables or disables launch-at-login.
type AutostartSetRequest struct {
	Enabled bool `json:"enabled"`
}

// AutostartResponse reports the autostart state after a change.
type AutostartResponse struct {
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// Encode encodes a payload to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to a payload.
func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewErrorMessage creates an error message.
func NewErrorMessage(requestID uint32, code int, message string) *Message {
	payload, _ := Encode(&ErrorResponse{
		Code:    code,
		Message: message,
	})
	return NewMessage(MsgError, requestID, payload)
}

// NewResponse creates a response message with a JSON payload.
func NewResponse(msgType MessageType, requestID uint32, v any) (*Message, error) {
	payload, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return NewMessage(msgType, requestID, payload), nil
}
