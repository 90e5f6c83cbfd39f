package escrow

import "errors"

var (
	ErrNotFound          = errors.New("项目不存在")
	ErrInvalidParameters = errors.New("项目参数不合法")
	ErrCampaignClosed    = errors.New("众筹已结束，无法接受贡献")
	ErrBelowMinimum      = errors.New("贡献金额低于最小限制")
	ErrNotAuthorized     = errors.New("只有项目创建者可以提取资金")
	ErrNotYetSuccessful  = errors.New("项目尚未成功，无法提取资金")
	ErrNotEligible       = errors.New("不满足退款条件")
	ErrAlreadyWithdrawn  = errors.New("资金已被提取")
	ErrTransferFailed    = errors.New("转账失败")
	ErrMintFailed        = errors.New("收据铸造失败")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, "not_found"},
	{ErrInvalidParameters, "invalid_parameters"},
	{ErrCampaignClosed, "campaign_closed"},
	{ErrBelowMinimum, "below_minimum"},
	{ErrNotAuthorized, "not_authorized"},
	{ErrNotYetSuccessful, "not_yet_successful"},
	{ErrNotEligible, "not_eligible"},
	{ErrAlreadyWithdrawn, "already_withdrawn"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrMintFailed, "mint_failed"},
}

// Code 返回错误对应的稳定错误码，nil 返回 "ok"，未知错误返回 "internal"
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
