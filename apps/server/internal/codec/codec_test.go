package codec

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type actionPayload struct {
	Action string `json:"action"`
	Amount string `json:"amount"`
}

func TestCodecs_CarryPayload(t *testing.T) {
	for _, c := range []Codec{JSON{}, Proto{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Encode(Envelope{
				Type:    "player_action",
				TableID: "t-1",
				Seq:     7,
				Payload: actionPayload{Action: "raise", Amount: "12.50"},
			})
			require.NoError(t, err)

			env, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, "player_action", env.Type)
			assert.Equal(t, "t-1", env.TableID)
			assert.Equal(t, uint64(7), env.Seq)

			var got actionPayload
			require.NoError(t, env.Bind(&got))
			assert.Equal(t, actionPayload{Action: "raise", Amount: "12.50"}, got)
		})
	}
}

func TestProto_FramesAreStructs(t *testing.T) {
	data, err := Proto{}.Encode(Envelope{Type: "error", Payload: map[string]any{"code": "not_your_turn"}})
	require.NoError(t, err)

	var st structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &st))
	assert.Equal(t, "error", st.Fields["type"].GetStringValue())
	assert.Equal(t, "not_your_turn", st.Fields["payload"].GetStructValue().Fields["code"].GetStringValue())
}

func TestDecode_Errors(t *testing.T) {
	_, err := JSON{}.Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)
	_, err = JSON{}.Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)
	_, err = JSON{}.Decode([]byte(`not json`))
	assert.Error(t, err)
	_, err = Proto{}.Decode([]byte{0xff, 0xff})
	assert.Error(t, err)
	_, err = JSON{}.Encode(Envelope{})
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestForFormat(t *testing.T) {
	assert.Equal(t, websocket.BinaryMessage, ForFormat("PROTO").MessageType())
	assert.Equal(t, websocket.TextMessage, ForFormat("").MessageType())
	assert.Equal(t, "json", ForFormat("xml").Name())
}

func TestBind_NilPayload(t *testing.T) {
	var p actionPayload
	require.NoError(t, Envelope{Type: "list_tables"}.Bind(&p))
	assert.Equal(t, actionPayload{}, p)
}

func TestProto_KeepsLargeTimestamps(t *testing.T) {
	data, err := Proto{}.Encode(Envelope{Type: "update_table_list", ServerTs: 1760000000123, Payload: []any{}})
	require.NoError(t, err)
	env, err := Proto{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, int64(1760000000123), env.ServerTs)
}
