package handler

import (
	"net/http"

	"github.com/blues/escrow/internal/escrow"
	"github.com/gin-gonic/gin"
)

// PayoutHandler 资金提取与退款处理器
type PayoutHandler struct {
	engine *escrow.Engine
}

// NewPayoutHandler 创建资金处理器
func NewPayoutHandler(engine *escrow.Engine) *PayoutHandler {
	return &PayoutHandler{
		engine: engine,
	}
}

// Withdraw 创建者提取成功项目的筹款
func (h *PayoutHandler) Withdraw(c *gin.Context) {
	id, ok := projectIdFrom(c)
	if !ok {
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	if err := h.engine.WithdrawFunds(c.Request.Context(), id, caller); err != nil {
		EngineError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "资金提取成功", PayoutResponse{ProjectID: uint64(id)})
}

// Refund 贡献者取回失败项目的认捐
func (h *PayoutHandler) Refund(c *gin.Context) {
	id, ok := projectIdFrom(c)
	if !ok {
		return
	}
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	amount, err := h.engine.Refund(c.Request.Context(), id, caller)
	if err != nil {
		EngineError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款成功", PayoutResponse{
		ProjectID: uint64(id),
		Amount:    escrow.FormatEther(amount),
	})
}
