package signal

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dkeye/Handoff/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SessionPermitKey is where the HTTP layer keeps a validated permit code.
const SessionPermitKey = "permit_code"

// Tokens that select the receiver side. "student" is the legacy spelling.
const (
	ReceiverToken       = "receiver"
	legacyReceiverToken = "student"
)

const (
	reasonUnauthorized  = "unauthorized"
	reasonInvalidPermit = "cdkey.invalid"
	reasonRoomNotFound  = "room.not_found"
	reasonRateLimited   = "rate_limited"
)

// IsReceiverToken reports whether token opens the receiver side of a room.
func IsReceiverToken(token string) bool {
	return token == ReceiverToken || token == legacyReceiverToken
}

// authorize resolves the handshake into a peer. On rejection it returns the
// HTTP status and reason instead.
func (ctl *SignalWSController) authorize(c *gin.Context) (*domain.Peer, int, string) {
	if !ctl.Limiter.Allow(c.ClientIP()) {
		return nil, http.StatusTooManyRequests, reasonRateLimited
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = sessionCode(c)
	}
	if token == "" {
		return nil, http.StatusUnauthorized, reasonUnauthorized
	}

	if IsReceiverToken(token) {
		id, err := strconv.ParseInt(c.Query("roomId"), 10, 64)
		if err != nil || id <= 0 {
			return nil, http.StatusNotFound, reasonRoomNotFound
		}
		room := domain.RoomID(id)
		ok, err := ctl.Orch.RoomExists(c.Request.Context(), room)
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Stringer("room", room).Msg("room lookup failed")
			return nil, http.StatusUnauthorized, reasonUnauthorized
		}
		if !ok {
			return nil, http.StatusNotFound, reasonRoomNotFound
		}
		return domain.NewPeer("", domain.RoleReceiver, room), 0, ""
	}

	check, err := ctl.Orch.Permits.Validate(c.Request.Context(), token)
	switch {
	case errors.Is(err, domain.ErrPermitInvalid), errors.Is(err, domain.ErrPermitExhausted):
		return nil, http.StatusUnauthorized, reasonInvalidPermit
	case err != nil:
		log.Error().Err(err).Str("module", "signal").Msg("permit lookup failed")
		return nil, http.StatusUnauthorized, reasonUnauthorized
	}
	p := domain.NewPeer("", domain.RoleSender, domain.PermitRoom(check.ID))
	p.Permit = check.ID
	return p, 0, ""
}

func sessionCode(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	code, _ := sessions.Default(c).Get(SessionPermitKey).(string)
	return code
}
