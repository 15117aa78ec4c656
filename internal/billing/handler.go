package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"treinopp/internal/api"
	"treinopp/internal/apperr"
	"treinopp/internal/auth"
	"treinopp/internal/logger"
)

const SweepTokenHeader = "X-Sweep-Token"

type Handler struct {
	sweeper   *Sweeper
	tokenHash string
	now       func() time.Time
}

func NewHandler(sweeper *Sweeper, tokenHash string) *Handler {
	return &Handler{sweeper: sweeper, tokenHash: tokenHash, now: time.Now}
}

// RunFeeSweep godoc
// @Summary      Run fee sweep
// @Description  Queues due-date reminders and marks past-due fees overdue. Authorised by the sweep token.
// @Tags         internal
// @Produce      json
// @Param        X-Sweep-Token  header    string  true  "Sweep token"
// @Success      200            {object}  SweepResult
// @Failure      401            {object}  api.ErrorResponse
// @Failure      502            {object}  api.ErrorResponse
// @Router       /internal/sweeps/fees [post]
func (h *Handler) RunFeeSweep(c *gin.Context) {
	token := c.GetHeader(SweepTokenHeader)
	if !auth.CheckSecret(h.tokenHash, token) {
		logger.Warn("Rejected fee sweep trigger", "client_ip", c.ClientIP())
		api.RespondError(c, apperr.WithMessage(apperr.ErrUnauthorized, "invalid sweep token"))
		return
	}

	result, err := h.sweeper.Run(c.Request.Context(), h.now())
	if err != nil {
		api.RespondError(c, apperr.Wrap(apperr.ErrUpstream, err, ""))
		return
	}

	c.JSON(http.StatusOK, result)
}
