package gateway

import (
	"strings"

	"holdem-live/apps/server/internal/codec"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

func (c *Connection) handleMessage(data []byte) {
	env, err := c.codec.Decode(data)
	if err != nil {
		c.Gateway.log.WithError(err).Debugf("[Gateway] Bad frame from %s", c.ID)
		c.sendError(CodeBadMessage, "invalid message format")
		return
	}

	var handle func(codec.Envelope) error
	switch env.Type {
	case MsgSetUsername:
		handle = c.handleSetUsername
	case MsgLogin:
		handle = c.handleLogin
	case MsgCreateTable:
		handle = c.handleCreateTable
	case MsgJoinTable:
		handle = c.handleJoinTable
	case MsgLeaveTable:
		handle = c.handleLeaveTable
	case MsgRequestStartGame:
		handle = c.handleStartGame
	case MsgPlayerAction:
		handle = c.handleAction
	case MsgAddBot:
		handle = c.handleAddBot
	case MsgChatMessage:
		handle = c.handleChat
	case MsgListTables:
		handle = func(codec.Envelope) error {
			c.sendTableList(c.Gateway.lobby.List())
			return nil
		}
	default:
		c.Gateway.log.Debugf("[Gateway] Unknown message type %q from %s", env.Type, c.ID)
		c.sendError(CodeBadMessage, "unknown message type: "+env.Type)
		return
	}

	if err := handle(env); err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

func (c *Connection) handleSetUsername(env codec.Envelope) error {
	var req setUsernameRequest
	if err := env.Bind(&req); err != nil {
		// a bare string payload is accepted as well
		if err := env.Bind(&req.Username); err != nil {
			return err
		}
	}
	return c.claimName(req.Username, false)
}

func (c *Connection) handleLogin(env codec.Envelope) error {
	var req loginRequest
	if err := env.Bind(&req); err != nil {
		return err
	}
	if c.Gateway.accounts == nil {
		return errInvalidSession
	}
	_, username, ok := c.Gateway.accounts.ResolveSession(strings.TrimSpace(req.Token))
	if !ok {
		return errInvalidSession
	}
	return c.claimName(username, true)
}

func (c *Connection) claimName(requested string, signedIn bool) error {
	prev, tableID := c.identity()
	if tableID != "" {
		return errSeatedRename
	}
	name, err := c.Gateway.names.Claim(c.ID, requested, signedIn)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.username = name
	c.mu.Unlock()
	c.Gateway.bindUsername(c, prev, name)

	c.Gateway.log.Infof("[Gateway] %s is now %s", c.ID, name)
	c.enqueue(codec.Envelope{Type: MsgUsernameSet, Payload: usernameSet{Username: name, Registered: signedIn}})
	if prev == "" {
		c.Gateway.broadcastChat("", chatMessage{System: true, Text: name + " joined."}, c)
	}
	return nil
}

func (c *Connection) handleCreateTable(env codec.Envelope) error {
	var req createTableRequest
	if err := env.Bind(&req); err != nil {
		return err
	}
	username, tableID := c.identity()
	if username == "" {
		return errNoUsername
	}
	if tableID != "" {
		return errAlreadyAtTable
	}
	t, err := c.Gateway.lobby.Create(username, req.Name, req.SmallBlind, req.BigBlind, c.Gateway.deliverUpdate)
	if err != nil {
		return err
	}
	c.Gateway.log.Infof("[Gateway] %s created table %s", username, t.ID)
	c.Gateway.broadcastTableList()
	return nil
}

func (c *Connection) handleJoinTable(env codec.Envelope) error {
	var req tableRequest
	if err := env.Bind(&req); err != nil {
		return err
	}
	username, tableID := c.identity()
	if username == "" {
		return errNoUsername
	}
	if tableID != "" {
		return errAlreadyAtTable
	}
	t, err := c.Gateway.lobby.Get(req.TableID)
	if err != nil {
		return err
	}

	// the table broadcasts to seated users only once they are bound here
	c.setTable(t.ID)
	if err := t.Join(username); err != nil {
		c.setTable("")
		return err
	}
	c.Gateway.log.Infof("[Gateway] %s joined table %s", username, t.ID)
	c.Gateway.broadcastTableList()
	return nil
}

func (c *Connection) handleLeaveTable(codec.Envelope) error {
	username, tableID := c.identity()
	if tableID == "" {
		return errNotAtTable
	}
	if t, err := c.Gateway.lobby.Get(tableID); err == nil {
		if err := t.Leave(username); err != nil {
			c.Gateway.log.WithError(err).Debugf("[Gateway] %s leaving %s", username, tableID)
		}
		c.Gateway.lobby.RemoveIfEmpty(tableID)
	}
	c.setTable("")

	c.enqueue(codec.Envelope{Type: MsgLeftTable, TableID: tableID, Payload: leftTable{TableID: tableID}})
	c.Gateway.broadcastTableList()
	return nil
}

// activeTable resolves the table the connection is seated at. A tableId
// in the payload, when present, must name that table.
func (c *Connection) activeTable(env codec.Envelope) (string, *table.Table, error) {
	username, tableID := c.identity()
	if username == "" {
		return "", nil, errNoUsername
	}
	if tableID == "" {
		return "", nil, errNotAtTable
	}
	if env.TableID != "" && env.TableID != tableID {
		return "", nil, errNotAtTable
	}
	t, err := c.Gateway.lobby.Get(tableID)
	if err != nil {
		return "", nil, err
	}
	return username, t, nil
}

func (c *Connection) handleStartGame(env codec.Envelope) error {
	username, t, err := c.activeTable(env)
	if err != nil {
		return err
	}
	if err := t.StartHand(username); err != nil {
		return err
	}
	c.Gateway.broadcastTableList()
	return nil
}

func (c *Connection) handleAction(env codec.Envelope) error {
	var req actionRequest
	if err := env.Bind(&req); err != nil {
		return err
	}
	username, t, err := c.activeTable(env)
	if err != nil {
		return err
	}
	action, err := holdem.ParseAction(req.kind(), req.Amount)
	if err != nil {
		return err
	}
	return t.Act(username, action)
}

func (c *Connection) handleAddBot(env codec.Envelope) error {
	var req addBotRequest
	if err := env.Bind(&req); err != nil {
		return err
	}
	username, t, err := c.activeTable(env)
	if err != nil {
		return err
	}
	if err := t.AddBot(username, req.PersonaID); err != nil {
		return err
	}
	c.Gateway.broadcastTableList()
	return nil
}

func (c *Connection) handleChat(env codec.Envelope) error {
	var req chatRequest
	if err := env.Bind(&req); err != nil {
		return err
	}
	username, tableID := c.identity()
	if username == "" {
		return errNoUsername
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return errEmptyChat
	}
	if r := []rune(text); len(r) > maxChatLength {
		text = string(r[:maxChatLength])
	}
	c.Gateway.broadcastChat(tableID, chatMessage{Username: username, Text: text}, nil)
	return nil
}

func (c *Connection) sendTableList(tables []table.Summary) {
	c.enqueue(codec.Envelope{Type: MsgUpdateTableList, Payload: tables})
}

func (c *Connection) sendError(code int, msg string) {
	_, tableID := c.identity()
	c.enqueue(codec.Envelope{
		Type:    MsgError,
		TableID: tableID,
		Payload: errorPayload{Code: code, Message: msg},
	})
}
