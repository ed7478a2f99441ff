package menu

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/server"
)

const streamWriteTimeout = 5 * time.Second

// handleSessionStream pushes every new session view over a websocket until
// the client disconnects or the session closes.
//
//	@Summary		Stream session views
//	@Tags			menu
//	@Param			id path string true "Session ID"
//	@Success		101
//	@Failure		404 {object} server.Problem
//	@Router			/menu/sessions/{id}/stream [get]
func (p *Plugin) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.sessions.Get(r.PathValue("id"))
	if !ok {
		server.NotFound(w, "session not found", r.URL.Path)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		p.logger.Debug("websocket accept failed", zap.String("session", sess.ID()), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// Nothing is read from the client; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	views, cancel := sess.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(wctx, conn, v)
			wcancel()
			if err != nil {
				p.logger.Debug("stream write failed", zap.String("session", sess.ID()), zap.Error(err))
				return
			}
		}
	}
}
