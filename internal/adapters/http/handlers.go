package http

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/dkeye/Handoff/internal/adapters/signal"
	"github.com/dkeye/Handoff/internal/app/orch"
	"github.com/dkeye/Handoff/internal/core"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type handlers struct {
	orch *orch.Orchestrator
}

type ValidateRequest struct {
	Code string `json:"code"`
}

type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Used  int    `json:"used"`
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

type RoomView struct {
	ID        domain.RoomID `json:"id"`
	State     string        `json:"state"`
	Online    bool          `json:"online"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": h.orch.Registry.Len()})
}

// validatePermit checks a code and remembers it in the session, so the signal
// handshake can fall back to it.
func (h *handlers) validatePermit(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, ValidateResponse{Error: domain.CodeBadPayload})
		return
	}

	check, err := h.orch.Permits.Validate(c.Request.Context(), req.Code)
	switch {
	case errors.Is(err, domain.ErrPermitInvalid), errors.Is(err, domain.ErrPermitExhausted):
		c.JSON(http.StatusUnauthorized, ValidateResponse{Used: check.Used, Total: check.Total, Error: domain.Code(err)})
		return
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("validate permit")
		c.JSON(http.StatusInternalServerError, ValidateResponse{Error: domain.CodeInternal})
		return
	}

	sess := sessions.Default(c)
	sess.Set(signal.SessionPermitKey, check.Code)
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
	}
	c.JSON(http.StatusOK, ValidateResponse{Valid: true, Used: check.Used, Total: check.Total})
}

func (h *handlers) listRooms(c *gin.Context) {
	now := h.orch.Clock.Now()
	rooms := lo.Map(h.orch.Registry.ListAll(), func(s *core.RoomSession, _ int) RoomView {
		return RoomView{
			ID:        s.ID(),
			State:     s.State().String(),
			Online:    s.IsRoomOnline(now),
			CreatedAt: s.CreatedAt(),
		}
	})
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	c.JSON(http.StatusOK, rooms)
}
