package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/TheMichaelB/triplog/internal/money"
)

func TestNumberGrouping(t *testing.T) {
	en := money.NewFormatter("en")
	assert.Equal(t, "1,234.5", en.Number(1234.5, 1))
	assert.Equal(t, "50.0 km", en.Distance(50))

	de := money.NewFormatter("de")
	assert.Equal(t, "1.234,5", de.Number(1234.5, 1))
}

func TestMoney(t *testing.T) {
	f := money.NewFormatter("en")

	got := f.Money(12.5, "eur")
	assert.Contains(t, got, "12.50")
	assert.Contains(t, got, "€")

	assert.Equal(t, "12.50 XXQ", f.Money(12.5, "XXQ"))
	assert.Equal(t, "12.50", f.Money(12.5, ""))
}

func TestLanguageFallback(t *testing.T) {
	assert.Equal(t, language.English, money.NewFormatter("").Language())
	assert.Equal(t, language.English, money.NewFormatter("!!").Language())
	assert.Equal(t, language.German, money.NewFormatter("de").Language())
}
