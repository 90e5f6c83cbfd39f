package handler

import (
	"fmt"
	"net/http"

	"github.com/blues/escrow/internal/escrow"
	"github.com/gin-gonic/gin"
)

// ContributeHandler 贡献处理器
type ContributeHandler struct {
	engine *escrow.Engine
}

// NewContributeHandler 创建贡献处理器
func NewContributeHandler(engine *escrow.Engine) *ContributeHandler {
	return &ContributeHandler{
		engine: engine,
	}
}

// Contribute 认捐并获得一枚收据
func (h *ContributeHandler) Contribute(c *gin.Context) {
	id, ok := projectIdFrom(c)
	if !ok {
		return
	}
	contributor, ok := callerFrom(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	amount, err := escrow.ParseEther(req.Amount)
	if err != nil {
		EngineError(c, fmt.Errorf("%w: %v", escrow.ErrBelowMinimum, err))
		return
	}

	token, err := h.engine.Participate(c.Request.Context(), id, contributor, amount)
	if err != nil {
		EngineError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "认捐成功", ContributeResponse{
		ProjectID: uint64(id),
		TokenID:   string(token),
		Amount:    escrow.FormatEther(amount),
	})
}

// GetContribution 获取地址在项目中的贡献记录
func (h *ContributeHandler) GetContribution(c *gin.Context) {
	id, ok := projectIdFrom(c)
	if !ok {
		return
	}
	addr, ok := addressFrom(c)
	if !ok {
		return
	}

	record, err := h.engine.GetContribution(c.Request.Context(), id, addr)
	if err != nil {
		EngineError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", ContributionResponse{
		ProjectID:     uint64(id),
		Address:       addr.Hex(),
		AmountPledged: escrow.FormatEther(record.AmountPledged),
		ReceiptCount:  record.ReceiptCount,
	})
}
