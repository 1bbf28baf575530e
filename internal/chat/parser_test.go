package chat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeywords(t *testing.T) {
	p := NewParser()

	tests := []struct {
		input string
		want  Intent
	}{
		{"ayuda", HelpIntent{}},
		{"help", HelpIntent{}},
		{"?", HelpIntent{}},
		{"AYUDA", HelpIntent{}},
		{"lista", ListIntent{}},
		{"ls", ListIntent{}},
		{"ver", ListIntent{}},
		{"todos", ListIntent{}},
		{"total", TotalsIntent{}},
		{"resumen", TotalsIntent{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.input))
		})
	}
}

func TestParseOperators(t *testing.T) {
	p := NewParser()

	t.Run("charge", func(t *testing.T) {
		intent, ok := p.Parse("juan + 15").(ChargeIntent)
		require.True(t, ok)
		assert.Equal(t, "juan", intent.Query)
		assert.True(t, intent.Amount.Equal(decimal.NewFromInt(15)))
	})

	t.Run("payment", func(t *testing.T) {
		intent, ok := p.Parse("juan - 15").(PaymentIntent)
		require.True(t, ok)
		assert.Equal(t, "juan", intent.Query)
		assert.True(t, intent.Amount.Equal(decimal.NewFromInt(15)))
	})

	t.Run("payment with en dash", func(t *testing.T) {
		intent, ok := p.Parse("juan – 20").(PaymentIntent)
		require.True(t, ok)
		assert.Equal(t, "juan", intent.Query)
	})

	t.Run("decimal amount", func(t *testing.T) {
		intent, ok := p.Parse("maria perez + 12.50").(ChargeIntent)
		require.True(t, ok)
		assert.Equal(t, "maria perez", intent.Query)
		assert.True(t, intent.Amount.Equal(decimal.RequireFromString("12.50")))
	})

	t.Run("no spaces around operator", func(t *testing.T) {
		intent, ok := p.Parse("juan+15").(ChargeIntent)
		require.True(t, ok)
		assert.Equal(t, "juan", intent.Query)
	})
}

func TestParseNewDebtor(t *testing.T) {
	p := NewParser()

	t.Run("name and phone", func(t *testing.T) {
		intent, ok := p.Parse("nuevo Juan 5512345678").(NewDebtorIntent)
		require.True(t, ok)
		assert.Equal(t, "Juan", intent.Name)
		assert.Equal(t, "5512345678", intent.Phone)
		assert.True(t, intent.StartingBalance.IsZero())
	})

	t.Run("name phone and starting balance", func(t *testing.T) {
		intent, ok := p.Parse("nuevo Juan 5512345678 50").(NewDebtorIntent)
		require.True(t, ok)
		assert.Equal(t, "Juan", intent.Name)
		assert.Equal(t, "5512345678", intent.Phone)
		assert.True(t, intent.StartingBalance.Equal(decimal.NewFromInt(50)))
	})

	t.Run("multi word name", func(t *testing.T) {
		intent, ok := p.Parse("agregar Maria del Carmen 5598765432").(NewDebtorIntent)
		require.True(t, ok)
		assert.Equal(t, "Maria del Carmen", intent.Name)
		assert.Equal(t, "5598765432", intent.Phone)
	})

	t.Run("phone split across tokens", func(t *testing.T) {
		intent, ok := p.Parse("nuevo Juan 55 1234 5678").(NewDebtorIntent)
		require.True(t, ok)
		assert.Equal(t, "5512345678", intent.Phone)
		assert.True(t, intent.StartingBalance.IsZero())
	})

	t.Run("thirteen digit phone", func(t *testing.T) {
		intent, ok := p.Parse("new Juan 5219811034910").(NewDebtorIntent)
		require.True(t, ok)
		assert.Equal(t, "5219811034910", intent.Phone)
	})

	t.Run("missing phone falls through", func(t *testing.T) {
		_, ok := p.Parse("nuevo Juan").(UnknownIntent)
		assert.True(t, ok)
	})

	t.Run("short phone falls through", func(t *testing.T) {
		_, ok := p.Parse("nuevo Juan 12345").(UnknownIntent)
		assert.True(t, ok)
	})
}

func TestParsePrefixCommands(t *testing.T) {
	p := NewParser()

	t.Run("delete", func(t *testing.T) {
		intent, ok := p.Parse("borrar juan").(DeleteIntent)
		require.True(t, ok)
		assert.Equal(t, "juan", intent.Query)
	})

	t.Run("info", func(t *testing.T) {
		intent, ok := p.Parse("info maria perez").(InfoIntent)
		require.True(t, ok)
		assert.Equal(t, "maria perez", intent.Query)
	})

	t.Run("notify single", func(t *testing.T) {
		intent, ok := p.Parse("notificar juan").(NotifyIntent)
		require.True(t, ok)
		assert.False(t, intent.All)
		assert.Equal(t, "juan", intent.Query)
	})

	t.Run("notify all", func(t *testing.T) {
		intent, ok := p.Parse("notificar todos").(NotifyIntent)
		require.True(t, ok)
		assert.True(t, intent.All)
	})

	t.Run("notify all english", func(t *testing.T) {
		intent, ok := p.Parse("send all").(NotifyIntent)
		require.True(t, ok)
		assert.True(t, intent.All)
	})

	t.Run("del does not match detalles", func(t *testing.T) {
		// "detalles juan" must reach the info matcher, not delete.
		intent, ok := p.Parse("detalles juan").(InfoIntent)
		require.True(t, ok)
		assert.Equal(t, "juan", intent.Query)
	})
}

func TestParseOrdering(t *testing.T) {
	p := NewParser()

	t.Run("keyword beats operator pattern", func(t *testing.T) {
		// "ver" alone is the list command even though a debtor could be
		// named ver.
		assert.Equal(t, ListIntent{}, p.Parse("ver"))
	})

	t.Run("prefix beats operator pattern", func(t *testing.T) {
		// "info juan - 5" is an info query, not a payment on "info juan".
		intent, ok := p.Parse("info juan - 5").(InfoIntent)
		require.True(t, ok)
		assert.Equal(t, "juan - 5", intent.Query)
	})

	t.Run("unmatched input is unknown", func(t *testing.T) {
		intent, ok := p.Parse("hola que tal").(UnknownIntent)
		require.True(t, ok)
		assert.Equal(t, "hola que tal", intent.Input)
	})

	t.Run("empty input is unknown", func(t *testing.T) {
		_, ok := p.Parse("   ").(UnknownIntent)
		assert.True(t, ok)
	})
}
