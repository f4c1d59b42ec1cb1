package gateway

import (
	"errors"

	"holdem-live/apps/server/internal/auth"
	"holdem-live/apps/server/internal/lobby"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

// Client -> server message types.
const (
	MsgSetUsername      = "set_username"
	MsgLogin            = "login"
	MsgCreateTable      = "create_table"
	MsgJoinTable        = "join_table"
	MsgLeaveTable       = "leave_table"
	MsgRequestStartGame = "request_start_game"
	MsgPlayerAction     = "player_action"
	MsgAddBot           = "add_bot"
	MsgListTables       = "list_tables"
)

// Server -> client message types. MsgChatMessage flows both ways.
const (
	MsgUsernameSet       = "username_set"
	MsgUpdateTableList   = "update_table_list"
	MsgUpdateActiveTable = "update_active_table"
	MsgLeftTable         = "left_table"
	MsgChatMessage       = "chat_message"
	MsgError             = "error"
)

// Error codes sent in error frames.
const (
	CodeBadMessage     = 1
	CodeNoUsername     = 2
	CodeNotAtTable     = 3
	CodeRejected       = 4
	CodeUsername       = 5
	CodeTableNotFound  = 6
	CodeAlreadyAtTable = 7
	CodeUnauthorized   = 8
)

var (
	errNoUsername     = errors.New("set a username first")
	errNotAtTable     = errors.New("not at a table")
	errAlreadyAtTable = errors.New("already at a table")
	errSeatedRename   = errors.New("cannot change username while seated")
	errInvalidSession = errors.New("invalid or expired session")
	errEmptyChat      = errors.New("empty chat message")
)

const maxChatLength = 500

type setUsernameRequest struct {
	Username string `json:"username"`
}

type loginRequest struct {
	Token string `json:"token"`
}

type createTableRequest struct {
	Name       string       `json:"name"`
	SmallBlind holdem.Chips `json:"smallBlind"`
	BigBlind   holdem.Chips `json:"bigBlind"`
}

type tableRequest struct {
	TableID string `json:"tableId"`
}

// actionRequest names the action kind in "action"; browser clients send it
// as "type" inside the payload, which is accepted as well.
type actionRequest struct {
	Action string       `json:"action,omitempty"`
	Type   string       `json:"type,omitempty"`
	Amount holdem.Chips `json:"amount"`
}

func (r actionRequest) kind() string {
	if r.Action != "" {
		return r.Action
	}
	return r.Type
}

type addBotRequest struct {
	PersonaID string `json:"personaId"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type usernameSet struct {
	Username   string `json:"username"`
	Registered bool   `json:"registered"`
}

type chatMessage struct {
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
	System   bool   `json:"system,omitempty"`
}

type leftTable struct {
	TableID string `json:"tableId"`
}

type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, errNoUsername):
		return CodeNoUsername
	case errors.Is(err, errNotAtTable):
		return CodeNotAtTable
	case errors.Is(err, errAlreadyAtTable):
		return CodeAlreadyAtTable
	case errors.Is(err, errInvalidSession):
		return CodeUnauthorized
	case errors.Is(err, lobby.ErrTableNotFound), errors.Is(err, table.ErrTableClosed):
		return CodeTableNotFound
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrUsernameInUse),
		errors.Is(err, errSeatedRename):
		return CodeUsername
	default:
		return CodeRejected
	}
}
