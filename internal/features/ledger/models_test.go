package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTargetsPublication(t *testing.T) {
	pubID := int64(1)
	txID := int64(50)

	assert.True(t, (&Transaction{ForPublicationID: &pubID}).TargetsPublication())
	assert.False(t, (&Transaction{ForTransactionID: &txID}).TargetsPublication())
	assert.False(t, (&Transaction{}).TargetsPublication())
}

func TestBalanceSum(t *testing.T) {
	b := Balance{Plus: decimal.NewFromInt(30), Minus: decimal.NewFromInt(5)}
	assert.True(t, b.Sum().Equal(decimal.NewFromInt(25)))

	// Минусов больше, чем плюсов — итог отрицательный
	b = Balance{Plus: decimal.NewFromInt(2), Minus: decimal.NewFromInt(10)}
	assert.True(t, b.Sum().Equal(decimal.NewFromInt(-8)))

	assert.True(t, Balance{}.Sum().Equal(decimal.Zero))
}
