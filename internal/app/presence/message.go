package presence

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"lemuria/internal/app/user"
)

// EventType is the value of the "type" field of every frame.
type EventType string

const (
	TypeJoin   EventType = "join"
	TypePart   EventType = "part"
	TypeList   EventType = "list"
	TypeMsg    EventType = "msg"
	TypePos    EventType = "pos"
	TypeAvatar EventType = "avatar"
)

var (
	// ErrMissingType is returned for frames without a "type" field.
	ErrMissingType = errors.New("frame has no type")

	// ErrUnknownType is returned for frames whose type a client may not send.
	ErrUnknownType = errors.New("unknown frame type")

	// ErrInvalidPayload is returned when "data" does not match the shape required by the type.
	ErrInvalidPayload = errors.New("invalid frame payload")
)

// Event is one protocol frame. The set of implementations is closed.
type Event interface {
	Type() EventType
	json.Marshaler
}

// frame is the wire envelope shared by all events.
type frame struct {
	Type EventType `json:"type"`
	User string    `json:"user,omitempty"`
	Data any       `json:"data"`
}

// JoinEvent announces a user's arrival by display name.
type JoinEvent struct {
	Name string
}

func (JoinEvent) Type() EventType { return TypeJoin }

func (e JoinEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(frame{Type: TypeJoin, Data: e.Name})
}

// PartEvent announces a user's departure by display name.
type PartEvent struct {
	Name string
}

func (PartEvent) Type() EventType { return TypePart }

func (e PartEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(frame{Type: TypePart, Data: e.Name})
}

// ListEvent carries the records of every connected user.
type ListEvent struct {
	Users []user.Record
}

func (ListEvent) Type() EventType { return TypeList }

func (e ListEvent) MarshalJSON() ([]byte, error) {
	users := e.Users
	if users == nil {
		users = []user.Record{}
	}
	return json.Marshal(frame{Type: TypeList, Data: users})
}

// MsgEvent is a chat line. Outbound, User is the sender's display name.
type MsgEvent struct {
	User string
	Text string
}

func (MsgEvent) Type() EventType { return TypeMsg }

func (e MsgEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(frame{Type: TypeMsg, User: e.User, Data: e.Text})
}

// PosEvent carries a position update. Outbound, User is the mover's identity.
type PosEvent struct {
	User string
	Data user.PosData
}

func (PosEvent) Type() EventType { return TypePos }

func (e PosEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(frame{Type: TypePos, User: e.User, Data: e.Data})
}

// AvatarEvent announces an avatar change. Outbound, User is the identity.
type AvatarEvent struct {
	User   string
	Avatar int
}

func (AvatarEvent) Type() EventType { return TypeAvatar }

func (e AvatarEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(frame{Type: TypeAvatar, User: e.User, Data: e.Avatar})
}

// Encode renders ev as a text frame.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

type inboundFrame struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type inboundPos struct {
	Pos     *user.Vec3 `json:"pos"`
	Ori     *user.Vec3 `json:"ori"`
	State   *string    `json:"state"`
	Gesture *string    `json:"gesture"`
}

// DecodeInbound parses a frame sent by a client. Only msg, pos and avatar are accepted;
// the User field of the returned event is left empty for the caller to fill in.
func DecodeInbound(raw []byte) (Event, error) {
	var in inboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if in.Type == "" {
		return nil, ErrMissingType
	}

	data := bytes.TrimSpace(in.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("%w: %s frame without data", ErrInvalidPayload, in.Type)
	}

	switch in.Type {
	case TypeMsg:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, fmt.Errorf("%w: msg data must be a string", ErrInvalidPayload)
		}
		return MsgEvent{Text: text}, nil

	case TypePos:
		var p inboundPos
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if p.Pos == nil || p.Ori == nil || p.State == nil {
			return nil, fmt.Errorf("%w: pos data needs pos, ori and state", ErrInvalidPayload)
		}
		return PosEvent{Data: user.PosData{Pos: *p.Pos, Ori: *p.Ori, State: *p.State, Gesture: p.Gesture}}, nil

	case TypeAvatar:
		var avatar int
		if err := json.Unmarshal(data, &avatar); err != nil {
			return nil, fmt.Errorf("%w: avatar data must be an integer", ErrInvalidPayload)
		}
		return AvatarEvent{Avatar: avatar}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}
}
