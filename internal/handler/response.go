package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CallerHeader 调用方地址请求头
const CallerHeader = "X-Caller-Address"

var validate = validator.New()

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Code:    escrow.Code(nil),
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// EngineError 把引擎错误映射为 HTTP 状态码与错误码
func EngineError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	ErrorResponse(c, status, escrow.Code(err), err.Error())
}

// BindError 请求参数错误，校验失败时列出字段
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		ErrorResponse(c, http.StatusBadRequest, "invalid_request", "参数校验失败: "+strings.Join(fields, ", "))
		return
	}
	ErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, escrow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, escrow.ErrInvalidParameters), errors.Is(err, escrow.ErrBelowMinimum):
		return http.StatusBadRequest
	case errors.Is(err, escrow.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, escrow.ErrCampaignClosed),
		errors.Is(err, escrow.ErrNotYetSuccessful),
		errors.Is(err, escrow.ErrNotEligible),
		errors.Is(err, escrow.ErrAlreadyWithdrawn):
		return http.StatusConflict
	case errors.Is(err, escrow.ErrTransferFailed), errors.Is(err, escrow.ErrMintFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// callerFrom 从请求头读取调用方地址
func callerFrom(c *gin.Context) (common.Address, bool) {
	raw := strings.TrimSpace(c.GetHeader(CallerHeader))
	if err := validate.Var(raw, "required,eth_addr"); err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "invalid_caller", "缺少或无效的调用方地址: "+CallerHeader)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func projectIdFrom(c *gin.Context) (escrow.ProjectID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid_request", "无效的项目ID")
		return 0, false
	}
	return escrow.ProjectID(id), true
}

func addressFrom(c *gin.Context) (common.Address, bool) {
	var uri AddressUri
	if err := c.ShouldBindUri(&uri); err != nil {
		BindError(c, err)
		return common.Address{}, false
	}
	return common.HexToAddress(uri.Address), true
}
