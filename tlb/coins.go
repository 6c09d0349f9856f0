package tlb

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/tonkit/cellkit/tvm/cell"
)

// Coins is an amount of nano units shown with a fixed number of decimals, 9 for TON.
type Coins struct {
	decimals int
	val      *big.Int
}

var ErrInvalidAmount = errors.New("invalid amount string")
var ErrTooBigAmount = errors.New("too big number for coins")

var ZeroCoins = MustFromTON("0")

var tens = big.NewInt(10)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(tens, big.NewInt(int64(n)), nil)
}

func (g Coins) String() string {
	if g.val == nil || g.val.Sign() == 0 {
		return "0"
	}

	sign := ""
	if g.val.Sign() < 0 {
		sign = "-"
	}
	a := new(big.Int).Abs(g.val).String()

	if g.decimals == 0 {
		return sign + a
	}

	if len(a) <= g.decimals {
		a = strings.Repeat("0", g.decimals-len(a)+1) + a
	}
	hi, lo := a[:len(a)-g.decimals], strings.TrimRight(a[len(a)-g.decimals:], "0")
	if lo == "" {
		return sign + hi
	}
	return sign + hi + "." + lo
}

func (g Coins) Nano() *big.Int {
	if g.val == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(g.val)
}

func (g Coins) Decimals() int {
	return g.decimals
}

func MustFromDecimal(val string, decimals int) Coins {
	v, err := FromDecimal(val, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

func MustFromTON(val string) Coins {
	v, err := FromTON(val)
	if err != nil {
		panic(err)
	}
	return v
}

func MustFromNano(val *big.Int, decimals int) Coins {
	v, err := FromNano(val, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

func FromNano(val *big.Int, decimals int) (Coins, error) {
	if tooBig(val) {
		return Coins{}, ErrTooBigAmount
	}

	return Coins{
		decimals: decimals,
		val:      new(big.Int).Set(val),
	}, nil
}

func FromNanoTON(val *big.Int) Coins {
	return Coins{
		decimals: 9,
		val:      new(big.Int).Set(val),
	}
}

func FromNanoTONU(val uint64) Coins {
	return Coins{
		decimals: 9,
		val:      new(big.Int).SetUint64(val),
	}
}

func FromTON(val string) (Coins, error) {
	return FromDecimal(val, 9)
}

// FromDecimal parses amount like "-12.5", digits beyond decimals are dropped.
func FromDecimal(val string, decimals int) (Coins, error) {
	if decimals < 0 || decimals >= 128 {
		return Coins{}, fmt.Errorf("invalid decimals %d", decimals)
	}

	neg := strings.HasPrefix(val, "-")
	if neg {
		val = val[1:]
	}

	hiStr, loStr, _ := strings.Cut(val, ".")
	if !isDigits(hiStr) || (loStr != "" && !isDigits(loStr)) {
		return Coins{}, ErrInvalidAmount
	}

	if len(loStr) > decimals {
		loStr = loStr[:decimals]
	}
	loStr += strings.Repeat("0", decimals-len(loStr))

	hi, _ := new(big.Int).SetString(hiStr, 10)
	hi.Mul(hi, pow10(decimals))

	if loStr != "" {
		lo, _ := new(big.Int).SetString(loStr, 10)
		hi.Add(hi, lo)
	}

	if neg {
		hi.Neg(hi)
	}

	if tooBig(hi) {
		return Coins{}, ErrTooBigAmount
	}

	return Coins{
		decimals: decimals,
		val:      hi,
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// VarUInteger 16 holds up to 15 bytes.
func tooBig(val *big.Int) bool {
	return (val.BitLen()+7)>>3 >= 16
}

func (g Coins) Compare(coins *Coins) int {
	return g.Nano().Cmp(coins.Nano())
}

func (g Coins) GreaterThan(coins *Coins) bool {
	return g.Compare(coins) > 0
}

func (g Coins) GreaterOrEqual(coins *Coins) bool {
	return g.Compare(coins) >= 0
}

func (g Coins) LessThan(coins *Coins) bool {
	return g.Compare(coins) < 0
}

func (g Coins) LessOrEqual(coins *Coins) bool {
	return g.Compare(coins) <= 0
}

func (g Coins) Equals(coins *Coins) bool {
	return g.Compare(coins) == 0
}

func (g Coins) IsZero() bool {
	return g.val == nil || g.val.Sign() == 0
}

func (g Coins) IsPositive() bool {
	return g.val != nil && g.val.Sign() > 0
}

func (g Coins) IsNegative() bool {
	return g.val != nil && g.val.Sign() < 0
}

func (g *Coins) LoadFromCell(loader *cell.Slice) error {
	coins, err := loader.LoadBigCoins()
	if err != nil {
		return err
	}

	if g.decimals == 0 {
		g.decimals = 9
	}
	g.val = coins
	return nil
}

func (g Coins) ToCell() (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := b.StoreBigCoins(g.Nano()); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

func (g Coins) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", g.Nano().String())), nil
}

func (g *Coins) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("coins should be a quoted string of nano units")
	}

	str := string(data[1 : len(data)-1])
	if !isDigits(strings.TrimPrefix(str, "-")) {
		return ErrInvalidAmount
	}

	v, _ := new(big.Int).SetString(str, 10)
	if tooBig(v) {
		return ErrTooBigAmount
	}

	g.decimals = 9
	g.val = v
	return nil
}
