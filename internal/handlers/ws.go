// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"kierki/internal/middleware"
	"kierki/internal/protocol"
)

// WSHandler upgrades the connection, assigns a player id, sends the welcome
// message and runs the read loop until the connection dies. One goroutine
// per connection reads; a second drains the session's out-channel.
func WSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"kierki"},
			OriginPatterns: []string{"*"}, // Adjust for production.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "kierki" {
			c.Close(websocket.StatusPolicyViolation, "client must speak the kierki subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sess := newSession(srv.Sessions.NextID(), c, cancel)
		srv.Sessions.Add(sess)

		// The player id goes out before any other interaction.
		sess.Send(&protocol.Response{Type: protocol.RespWelcome, PlayerID: sess.ID})

		go writePump(ctx, sess, logger)
		readLoop(ctx, c, srv, sess, logger)

		srv.HandleConnectionDrop(sess)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}

// readLoop reads and routes requests until the connection closes or fails.
func readLoop(ctx context.Context, c *websocket.Conn, srv *Server, sess *Session, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("player %d: websocket closed normally", sess.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("player %d: websocket context canceled", sess.ID)
			} else {
				logger.Warnf("player %d: read error: %v (status %d)", sess.ID, err, status)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("player %d: ignoring non-text message type %d", sess.ID, msgType)
			continue
		}

		// A malformed message is a protocol failure: the connection is torn
		// down and the player is cleaned up like any other disconnect.
		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Warnf("player %d: invalid JSON, closing connection: %v", sess.ID, err)
			c.Close(websocket.StatusInvalidFramePayloadData, "invalid JSON")
			return
		}

		switch req.Type {
		case protocol.ReqUsername:
			srv.HandleUsername(sess, req.Name)
		case protocol.ReqCreateRoom:
			srv.HandleCreateRoom(sess)
		case protocol.ReqInvite:
			srv.HandleInvite(sess, req.Username)
		case protocol.ReqJoinRoom:
			srv.HandleJoinRoom(sess, req.RoomID)
		case protocol.ReqDealRound:
			srv.HandleDealRound(sess, req.RoomID)
		case protocol.ReqPlayCard:
			if req.Card == nil {
				sess.SendError("play_card requires a card")
				continue
			}
			srv.HandlePlayCard(sess, req.RoomID, req.Card)
		case protocol.ReqExitGame:
			srv.HandleExitGame(sess)
		case protocol.ReqDisconnect:
			srv.HandleDisconnect(sess, req.RoomID)
		default:
			logger.Warnf("player %d: unknown request type %q", sess.ID, req.Type)
			sess.SendError(fmt.Sprintf("unknown request type: %s", req.Type))
		}
	}
}
