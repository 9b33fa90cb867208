package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/analysis"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/utils"
)

// AnalysisHandler relays the current snapshot to the text-generation service.
type AnalysisHandler struct {
	state  *calcstate.State
	client *analysis.Client
}

func NewAnalysisHandler(state *calcstate.State, client *analysis.Client) *AnalysisHandler {
	return &AnalysisHandler{state: state, client: client}
}

func (h *AnalysisHandler) Run(c *gin.Context) {
	const op = "AnalysisHandler.Run"

	if !h.client.Enabled() {
		writeError(c, utils.E(utils.CodeUnavailable, op, "AI analysis is disabled: no GEMINI_API_KEY configured", nil))
		return
	}

	v := h.state.View()
	if v.Snapshot == nil {
		writeError(c, utils.E(utils.CodeConflict, op, "no calculation to analyze: enter a valid amount first", nil))
		return
	}
	amount, ok := h.state.Amount()
	if !ok {
		writeError(c, utils.E(utils.CodeConflict, op, "no calculation to analyze: enter a valid amount first", nil))
		return
	}

	text := h.client.RequestAnalysis(c.Request.Context(), *v.Snapshot, amount, v.Mode)

	// Record the commentary only if the inputs it described are still current;
	// a mutation during the network call wins.
	if cur := h.state.View(); cur.AmountText == v.AmountText && cur.Mode == v.Mode {
		h.state.SetAnalysisText(text)
	}
	c.JSON(http.StatusOK, gin.H{"analysis": text})
}
