package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/pricing"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/utils"
)

// CalcHandler serves the calculator surface: rules, input mutation, snapshot.
type CalcHandler struct {
	state *calcstate.State
}

func NewCalcHandler(state *calcstate.State) *CalcHandler {
	return &CalcHandler{state: state}
}

func (h *CalcHandler) Rules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": pricing.Rules()})
}

type setAmountReq struct {
	AmountText string `json:"amount_text"`
}

func (h *CalcHandler) SetAmount(c *gin.Context) {
	var req setAmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CalcHandler.SetAmount", "invalid json body", err))
		return
	}
	if err := h.state.SetAmountText(req.AmountText); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state.View())
}

type setModeReq struct {
	Mode string `json:"mode"`
}

func (h *CalcHandler) SetMode(c *gin.Context) {
	var req setModeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CalcHandler.SetMode", "invalid json body", err))
		return
	}
	if err := h.state.SetMode(pricing.Mode(req.Mode)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state.View())
}

func (h *CalcHandler) Clear(c *gin.Context) {
	h.state.Clear()
	c.JSON(http.StatusOK, h.state.View())
}

func (h *CalcHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.View())
}
