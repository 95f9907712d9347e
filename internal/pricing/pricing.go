package pricing

import (
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MinDiscount = 0
	MaxDiscount = 100
)

var hundred = decimal.NewFromInt(100)

// Clamp normalizes a price and discount into their valid ranges. The returned
// flag is true when either input had to be corrected.
func Clamp(price int64, discount int) (int64, int, bool) {
	clamped := false
	if price < 0 {
		price = 0
		clamped = true
	}
	if discount < MinDiscount {
		discount = MinDiscount
		clamped = true
	}
	if discount > MaxDiscount {
		discount = MaxDiscount
		clamped = true
	}
	return price, discount, clamped
}

// EffectivePrice returns price reduced by discount percent, rounded half up to
// the same integer unit as price. The result is always within [0, price].
func EffectivePrice(price int64, discount int) int64 {
	price, discount, _ = Clamp(price, discount)
	if discount == 0 {
		return price
	}
	if discount == MaxDiscount {
		return 0
	}

	remaining := decimal.NewFromInt(int64(MaxDiscount - discount))
	return decimal.NewFromInt(price).
		Mul(remaining).
		Div(hundred).
		Round(0).
		IntPart()
}

// DiscountAmount is the part of price removed by discount.
func DiscountAmount(price int64, discount int) int64 {
	price, _, _ = Clamp(price, 0)
	return price - EffectivePrice(price, discount)
}

// MaxAmount is the largest amount any total saturates at.
const MaxAmount int64 = math.MaxInt64

// LineTotal multiplies a unit price by a quantity, treating non-positive
// quantities as an empty line. The product saturates at MaxAmount.
func LineTotal(unit int64, quantity int) int64 {
	if quantity <= 0 || unit <= 0 {
		return 0
	}
	if unit > MaxAmount/int64(quantity) {
		return MaxAmount
	}
	return unit * int64(quantity)
}

// Sum adds non-negative amounts, saturating at MaxAmount.
func Sum(amounts ...int64) int64 {
	var total int64
	for _, a := range amounts {
		if a <= 0 {
			continue
		}
		if a > MaxAmount-total {
			return MaxAmount
		}
		total += a
	}
	return total
}

// Engine applies the pricing rules and reports clamped inputs through its
// logger so the surrounding collaborator can surface them.
type Engine struct {
	log       *zap.Logger
	formatter *Formatter
}

// NewEngine creates a pricing engine formatting amounts for locale.
func NewEngine(log *zap.Logger, locale string) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:       log,
		formatter: NewFormatter(locale),
	}
}

// EffectivePrice is EffectivePrice with anomaly logging.
func (e *Engine) EffectivePrice(productID uint, price int64, discount int) int64 {
	if _, _, clamped := Clamp(price, discount); clamped {
		e.log.Warn("Pricing input clamped",
			zap.Uint("product_id", productID),
			zap.Int64("price", price),
			zap.Int("discount", discount))
	}
	return EffectivePrice(price, discount)
}

// Format renders amount with locale grouping and no decimal places.
func (e *Engine) Format(amount int64) string {
	return e.formatter.Format(amount)
}
