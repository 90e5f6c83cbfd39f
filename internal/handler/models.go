package handler

import (
	"time"

	"github.com/blues/escrow/internal/escrow"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型，金额均为 ether 十进制字符串

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title               string `json:"title" binding:"required,max=255"`
	Description         string `json:"description"`
	MinimumContribution string `json:"minimumContribution" binding:"omitempty,numeric"`
	GoalAmount          string `json:"goalAmount" binding:"required,numeric"`
	DurationDays        int64  `json:"durationDays"`
}

// ContributeRequest 认捐请求
type ContributeRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// AddressUri 路径中的地址参数
type AddressUri struct {
	Address string `uri:"address" binding:"required,eth_addr"`
}

// 响应模型

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID                  uint64    `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Creator             string    `json:"creator"`
	MinimumContribution string    `json:"minimumContribution"`
	GoalAmount          string    `json:"goalAmount"`
	DurationDays        int64     `json:"durationDays"`
	TotalRaised         string    `json:"totalRaised"`
	TotalRefunded       string    `json:"totalRefunded"`
	Balance             string    `json:"balance"`
	FundsWithdrawn      bool      `json:"fundsWithdrawn"`
	State               string    `json:"state"`
	CreatedAt           time.Time `json:"createdAt"`
	Deadline            time.Time `json:"deadline"`
}

// GetProjectsResponse 获取项目列表响应
type GetProjectsResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	Pagination Pagination        `json:"pagination"`
}

// CreateProjectResponse 创建项目响应
type CreateProjectResponse struct {
	ID uint64 `json:"id"`
}

// ContributeResponse 认捐响应
type ContributeResponse struct {
	ProjectID uint64 `json:"projectId"`
	TokenID   string `json:"tokenId"`
	Amount    string `json:"amount"`
}

// ContributionResponse 贡献记录响应
type ContributionResponse struct {
	ProjectID     uint64 `json:"projectId"`
	Address       string `json:"address"`
	AmountPledged string `json:"amountPledged"`
	ReceiptCount  int64  `json:"receiptCount"`
}

// PayoutResponse 提取与退款响应
type PayoutResponse struct {
	ProjectID uint64 `json:"projectId"`
	Amount    string `json:"amount,omitempty"`
}

// ReceiptResponse 收据响应
type ReceiptResponse struct {
	TokenID   string    `json:"tokenId"`
	ProjectID uint64    `json:"projectId"`
	Amount    string    `json:"amount"`
	MintedAt  time.Time `json:"mintedAt"`
}

// GetReceiptsResponse 地址收据响应
type GetReceiptsResponse struct {
	Address  string            `json:"address"`
	Balance  int64             `json:"balance"`
	Receipts []ReceiptResponse `json:"receipts"`
}

// ToProjectResponse 转换项目快照
func ToProjectResponse(v escrow.ProjectView) ProjectResponse {
	return ProjectResponse{
		ID:                  uint64(v.ID),
		Title:               v.Title,
		Description:         v.Description,
		Creator:             v.Creator.Hex(),
		MinimumContribution: escrow.FormatEther(v.MinimumContribution),
		GoalAmount:          escrow.FormatEther(v.GoalAmount),
		DurationDays:        v.DurationDays,
		TotalRaised:         escrow.FormatEther(v.TotalRaised),
		TotalRefunded:       escrow.FormatEther(v.TotalRefunded),
		Balance:             escrow.FormatEther(v.Balance),
		FundsWithdrawn:      v.FundsWithdrawn,
		State:               string(v.State),
		CreatedAt:           v.CreatedAt,
		Deadline:            v.Deadline,
	}
}

// ToProjectResponseList 转换项目快照列表
func ToProjectResponseList(views []escrow.ProjectView) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(views))
	for _, v := range views {
		out = append(out, ToProjectResponse(v))
	}
	return out
}

// ToReceiptResponseList 转换收据列表
func ToReceiptResponseList(receipts []escrow.Receipt) []ReceiptResponse {
	out := make([]ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, ReceiptResponse{
			TokenID:   string(r.TokenID),
			ProjectID: uint64(r.ProjectID),
			Amount:    escrow.FormatEther(r.Amount),
			MintedAt:  r.MintedAt,
		})
	}
	return out
}
