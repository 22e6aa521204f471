package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelkit/reelkit/internal/api/dto"
	ierr "github.com/reelkit/reelkit/internal/errors"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/service"
)

// CreditsHandler exposes ledger balances and credit spends.
type CreditsHandler struct {
	creditService service.CreditService
	logger        *logger.Logger
}

func NewCreditsHandler(
	creditService service.CreditService,
	logger *logger.Logger,
) *CreditsHandler {
	return &CreditsHandler{
		creditService: creditService,
		logger:        logger,
	}
}

// GetBalance handles GET /credits/:user_id
func (h *CreditsHandler) GetBalance(c *gin.Context) {
	resp, err := h.creditService.GetBalance(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SpendCredits handles POST /credits/:user_id/spend
func (h *CreditsHandler) SpendCredits(c *gin.Context) {
	var req dto.SpendCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.creditService.SpendCredits(c.Request.Context(), c.Param("user_id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
