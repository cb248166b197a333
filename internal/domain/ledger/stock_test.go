package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/nova-salud-api/internal/domain/ledger"
)

func TestValidQuantity(t *testing.T) {
	assert.True(t, ledger.ValidQuantity(1))
	assert.False(t, ledger.ValidQuantity(0))
	assert.False(t, ledger.ValidQuantity(-3))
}

func TestCanDebit(t *testing.T) {
	cases := []struct {
		name  string
		stock int64
		qty   int64
		want  bool
	}{
		{"stock exacto", 10, 10, true},
		{"stock de sobra", 100, 10, true},
		{"stock insuficiente", 1, 2, false},
		{"stock cero", 0, 1, false},
		{"delta negativo siempre cabe", 0, -5, true},
		{"delta cero", 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ledger.CanDebit(tc.stock, tc.qty))
		})
	}
}

func TestDelta(t *testing.T) {
	assert.Equal(t, int64(5), ledger.Delta(10, 15))
	assert.Equal(t, int64(-5), ledger.Delta(10, 5))
	assert.Equal(t, int64(0), ledger.Delta(7, 7))
}
