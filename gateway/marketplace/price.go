package marketplace

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// NativeTokenDecimals はネイティブトークンの小数桁
const NativeTokenDecimals = 18

var ErrInvalidPrice = errors.New("invalid price")

// ToWei は "0.05" のような表示価格を最小単位に変換する
func ToWei(price string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPrice, "%q", price)
	}
	if d.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidPrice, "%q is negative", price)
	}

	wei := d.Shift(decimals)
	if !wei.IsInteger() {
		return nil, errors.Wrapf(ErrInvalidPrice, "%q has more than %d decimals", price, decimals)
	}

	return wei.BigInt(), nil
}
