// Package codec frames the messages exchanged with websocket clients.
//
// Every frame is an Envelope. Browsers speak JSON text frames; native
// clients may ask for binary frames, which carry the same document as a
// google.protobuf.Struct.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrEmptyFrame  = errors.New("empty frame")
	ErrMissingType = errors.New("message type is required")
)

// Envelope wraps one message. Payload is any JSON-serialisable value when
// encoding; decoded envelopes carry it as json.RawMessage.
type Envelope struct {
	Type     string `json:"type"`
	TableID  string `json:"tableId,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
	ServerTs int64  `json:"serverTsMs,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Bind decodes the payload of a received envelope into dst.
func (e Envelope) Bind(dst any) error {
	var raw []byte
	switch p := e.Payload.(type) {
	case nil:
		return nil
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		raw = b
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Codec encodes server envelopes and decodes client envelopes.
type Codec interface {
	Name() string
	Encode(Envelope) ([]byte, error)
	Decode([]byte) (Envelope, error)
	// MessageType is the websocket frame type the codec writes.
	MessageType() int
}

// ForFormat picks the codec for a ?format= query value.
func ForFormat(format string) Codec {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "proto", "protobuf", "binary":
		return Proto{}
	default:
		return JSON{}
	}
}

// Stamp fills in the server timestamp.
func Stamp(env Envelope) Envelope {
	if env.ServerTs == 0 {
		env.ServerTs = time.Now().UnixMilli()
	}
	return env
}

type wireEnvelope struct {
	Type     string          `json:"type"`
	TableID  string          `json:"tableId,omitempty"`
	Seq      uint64          `json:"seq,omitempty"`
	ServerTs int64           `json:"serverTsMs,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func (w wireEnvelope) envelope() (Envelope, error) {
	if strings.TrimSpace(w.Type) == "" {
		return Envelope{}, ErrMissingType
	}
	env := Envelope{Type: w.Type, TableID: w.TableID, Seq: w.Seq, ServerTs: w.ServerTs}
	if len(w.Payload) > 0 {
		env.Payload = w.Payload
	}
	return env, nil
}

// JSON is the text-frame codec.
type JSON struct{}

func (JSON) Name() string     { return "json" }
func (JSON) MessageType() int { return websocket.TextMessage }

func (JSON) Encode(env Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, ErrMissingType
	}
	return json.Marshal(env)
}

func (JSON) Decode(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("decode json envelope: %w", err)
	}
	return w.envelope()
}

// Proto is the binary-frame codec: the JSON document of the envelope is
// carried as a google.protobuf.Struct.
type Proto struct{}

func (Proto) Name() string     { return "proto" }
func (Proto) MessageType() int { return websocket.BinaryMessage }

func (Proto) Encode(env Envelope) ([]byte, error) {
	doc, err := JSON{}.Encode(env)
	if err != nil {
		return nil, err
	}
	var st structpb.Struct
	if err := protojson.Unmarshal(doc, &st); err != nil {
		return nil, fmt.Errorf("encode proto envelope: %w", err)
	}
	return proto.Marshal(&st)
}

func (Proto) Decode(data []byte) (Envelope, error) {
	if len(data) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Envelope{}, fmt.Errorf("decode proto envelope: %w", err)
	}
	// header numbers are read from the struct directly: protojson renders
	// large doubles in exponent form, which json refuses for integers
	fields := st.GetFields()
	w := wireEnvelope{
		Type:     fields["type"].GetStringValue(),
		TableID:  fields["tableId"].GetStringValue(),
		Seq:      uint64(fields["seq"].GetNumberValue()),
		ServerTs: int64(fields["serverTsMs"].GetNumberValue()),
	}
	if p, ok := fields["payload"]; ok {
		raw, err := protojson.Marshal(p)
		if err != nil {
			return Envelope{}, fmt.Errorf("decode proto payload: %w", err)
		}
		w.Payload = raw
	}
	return w.envelope()
}
