package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrUnsupportedType is returned by Decode when a frame's type tag is
// recognised by the frame codec but has no message mapping (currently just
// Log, reserved per §9's open questions).
var ErrUnsupportedType = errors.New("wire: unsupported message type")

// Message is the tagged variant over Hello, HelloOk, Call, Result, Error
// and Heartbeat described in spec.md §3.
type Message interface {
	messageType() Type
}

// Hello carries no payload and no request id (always 0).
type Hello struct{}

func (Hello) messageType() Type { return TypeHello }

// HelloOk is the Runner's handshake reply: plugin name and exported
// function list. It ignores any request identifier (always encoded as 0).
type HelloOk struct {
	Name      string
	Functions []string
}

func (HelloOk) messageType() Type { return TypeHelloOk }

// Call asks a plugin to invoke one of its exported functions.
type Call struct {
	RequestID uint32
	FnName    string
	Args      []string
}

func (Call) messageType() Type { return TypeCall }

// Result is a plugin's synchronous reply to a Call.
type Result struct {
	RequestID uint32
	Ok        bool
	Output    string
}

func (Result) messageType() Type { return TypeResult }

// Error reports a transport or invocation failure correlated to a Call.
type Error struct {
	RequestID uint32
	Code      uint32
	Message   string
}

func (Error) messageType() Type { return TypeError }

// Heartbeat carries no payload; liveness policy is unspecified (§9) and
// this revision neither sends them proactively nor evicts on their
// absence.
type Heartbeat struct{}

func (Heartbeat) messageType() Type { return TypeHeartbeat }

type helloOkPayload struct {
	Name      string   `cbor:"name"`
	Functions []string `cbor:"functions"`
}

type callPayload struct {
	FnName string   `cbor:"fn_name"`
	Args   []string `cbor:"args"`
}

// resultPayload carries Output as a CBOR byte string (not text) so that
// non-UTF-8 bytes a plugin's handle_message returns transit verbatim, per
// the boundary behaviour in spec.md §8.
type resultPayload struct {
	Ok     bool   `cbor:"ok"`
	Output []byte `cbor:"output"`
}

type errorPayload struct {
	Code    uint32 `cbor:"code"`
	Message string `cbor:"message"`
}

// Encode renders a Message to its on-wire Frame.
func Encode(m Message) (*Frame, error) {
	switch v := m.(type) {
	case Hello:
		return &Frame{Type: TypeHello}, nil

	case Heartbeat:
		return &Frame{Type: TypeHeartbeat}, nil

	case HelloOk:
		payload, err := cbor.Marshal(helloOkPayload{Name: v.Name, Functions: v.Functions})
		if err != nil {
			return nil, fmt.Errorf("wire: encode HelloOk: %w", err)
		}
		return &Frame{Type: TypeHelloOk, Payload: payload}, nil

	case Call:
		payload, err := cbor.Marshal(callPayload{FnName: v.FnName, Args: v.Args})
		if err != nil {
			return nil, fmt.Errorf("wire: encode Call: %w", err)
		}
		if len(payload) > MaxPayload {
			return nil, ErrPayloadTooLarge
		}
		return &Frame{Type: TypeCall, RequestID: v.RequestID, Payload: payload}, nil

	case Result:
		payload, err := cbor.Marshal(resultPayload{Ok: v.Ok, Output: []byte(v.Output)})
		if err != nil {
			return nil, fmt.Errorf("wire: encode Result: %w", err)
		}
		return &Frame{Type: TypeResult, RequestID: v.RequestID, Payload: payload}, nil

	case Error:
		payload, err := cbor.Marshal(errorPayload{Code: v.Code, Message: v.Message})
		if err != nil {
			return nil, fmt.Errorf("wire: encode Error: %w", err)
		}
		return &Frame{Type: TypeError, RequestID: v.RequestID, Payload: payload}, nil

	default:
		return nil, fmt.Errorf("wire: unknown message type %T", m)
	}
}

// Decode maps a received Frame back to its typed Message.
func Decode(f *Frame) (Message, error) {
	switch f.Type {
	case TypeHello:
		return Hello{}, nil

	case TypeHeartbeat:
		return Heartbeat{}, nil

	case TypeHelloOk:
		var p helloOkPayload
		if err := cbor.Unmarshal(f.Payload, &p); err != nil {
			return nil, fmt.Errorf("wire: decode HelloOk: %w", err)
		}
		return HelloOk{Name: p.Name, Functions: p.Functions}, nil

	case TypeCall:
		var p callPayload
		if err := cbor.Unmarshal(f.Payload, &p); err != nil {
			return nil, fmt.Errorf("wire: decode Call: %w", err)
		}
		return Call{RequestID: f.RequestID, FnName: p.FnName, Args: p.Args}, nil

	case TypeResult:
		var p resultPayload
		if err := cbor.Unmarshal(f.Payload, &p); err != nil {
			return nil, fmt.Errorf("wire: decode Result: %w", err)
		}
		return Result{RequestID: f.RequestID, Ok: p.Ok, Output: string(p.Output)}, nil

	case TypeError:
		var p errorPayload
		if err := cbor.Unmarshal(f.Payload, &p); err != nil {
			return nil, fmt.Errorf("wire: decode Error: %w", err)
		}
		return Error{RequestID: f.RequestID, Code: p.Code, Message: p.Message}, nil

	case TypeLog:
		return nil, fmt.Errorf("%w: LOG", ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, f.Type)
	}
}

// CallPayloadSize returns the size in bytes of a Call's encoded CBOR
// payload for fnName and args. The payload never includes the request id
// (callPayload carries only FnName and Args), so callers can check a call
// against MaxPayload before allocating one.
func CallPayloadSize(fnName string, args []string) (int, error) {
	payload, err := cbor.Marshal(callPayload{FnName: fnName, Args: args})
	if err != nil {
		return 0, fmt.Errorf("wire: encode Call: %w", err)
	}
	return len(payload), nil
}

// CallWireForm renders the "fn:NAME [ARG1 ARG2 ...]" text the Runner passes
// to a plugin's handle_message, per §4.D. Empty args yield exactly
// "fn:NAME" with no trailing space.
func CallWireForm(fnName string, args []string) string {
	s := "fn:" + fnName
	for _, a := range args {
		s += " " + a
	}
	return s
}
