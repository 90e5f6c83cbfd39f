package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "整数", input: "1", want: "1000000000000000000"},
		{name: "小数", input: "0.2", want: "200000000000000000"},
		{name: "最小单位", input: "0.000000000000000001", want: "1"},
		{name: "零", input: "0", want: "0"},
		{name: "前后空白", input: " 1.5 ", want: "1500000000000000000"},
		{name: "超过 wei 精度", input: "0.0000000000000000001", wantErr: true},
		{name: "非数字", input: "abc", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEther(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	testCases := []struct {
		input *big.Int
		want  string
	}{
		{input: nil, want: "0"},
		{input: big.NewInt(0), want: "0"},
		{input: MustParseEther("0.2"), want: "0.2"},
		{input: MustParseEther("10"), want: "10"},
		{input: big.NewInt(1), want: "0.000000000000000001"},
	}
	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatEther(tc.input))
		})
	}
}
