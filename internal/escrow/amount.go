package escrow

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var weiPerEther = new(big.Rat).SetInt(big.NewInt(params.Ether))

// ParseEther 将十进制 ether 字符串精确转换为 wei，如 "0.2" -> 2e17
func ParseEther(s string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("无效的金额: %q", s)
	}
	r.Mul(r, weiPerEther)
	if !r.IsInt() {
		return nil, fmt.Errorf("金额精度超过 wei: %q", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// MustParseEther 同 ParseEther，解析失败时 panic，用于常量和测试
func MustParseEther(s string) *big.Int {
	v, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatEther 将 wei 格式化为十进制 ether 字符串，去掉多余的零
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(wei, big.NewInt(params.Ether)).FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
