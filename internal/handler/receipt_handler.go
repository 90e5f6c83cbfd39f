package handler

import (
	"context"
	"net/http"

	"github.com/blues/escrow/internal/escrow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// ReceiptCounter 查询地址持有的收据数量
type ReceiptCounter interface {
	BalanceOf(ctx context.Context, owner common.Address) (int64, error)
}

// ReceiptHandler 收据处理器
type ReceiptHandler struct {
	engine  *escrow.Engine
	counter ReceiptCounter
}

// NewReceiptHandler 创建收据处理器
func NewReceiptHandler(engine *escrow.Engine, counter ReceiptCounter) *ReceiptHandler {
	return &ReceiptHandler{
		engine:  engine,
		counter: counter,
	}
}

// GetReceipts 获取地址的收据数量与收据列表
func (h *ReceiptHandler) GetReceipts(c *gin.Context) {
	addr, ok := addressFrom(c)
	if !ok {
		return
	}

	balance, err := h.counter.BalanceOf(c.Request.Context(), addr)
	if err != nil {
		ErrorResponse(c, http.StatusBadGateway, "receipt_unavailable", err.Error())
		return
	}
	receipts, err := h.engine.ListReceipts(c.Request.Context(), addr)
	if err != nil {
		EngineError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取收据成功", GetReceiptsResponse{
		Address:  addr.Hex(),
		Balance:  balance,
		Receipts: ToReceiptResponseList(receipts),
	})
}
