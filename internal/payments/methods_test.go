package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMethod(id, fee string, mutate ...func(*PaymentMethod)) PaymentMethod {
	m := PaymentMethod{
		ID:             id,
		Name:           id,
		Type:           "local",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{"lebanon"},
		Currencies:     []string{"USD"},
		ProcessingTime: "Instant",
		Fee:            fee,
		MinAmount:      "$0",
		MaxAmount:      "$1000",
		KYC:            "basic",
	}
	for _, f := range mutate {
		f(&m)
	}
	return m
}

func ids(methods []PaymentMethod) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, m.ID)
	}
	return out
}

var openFilters = Filters{Direction: "all", Region: "all", Currency: "all", Speed: "all", MaxFee: 100}

func TestFilterMethodsFeeCap(t *testing.T) {
	methods := []PaymentMethod{
		testMethod("low", "0%"),
		testMethod("mid", "1.5%"),
		testMethod("high", "2.5%"),
	}

	filters := openFilters
	filters.MaxFee = 2
	assert.Equal(t, []string{"low", "mid"}, ids(FilterMethods(methods, filters)))

	filters.MaxFee = 1
	assert.Equal(t, []string{"low"}, ids(FilterMethods(methods, filters)))
}

func TestFilterMethodsNonNumericFeeCountsAsZero(t *testing.T) {
	depends := testMethod("depends", "Depends on bank")

	filters := openFilters
	filters.MaxFee = 0
	result := FilterMethods([]PaymentMethod{depends}, filters)

	require.Len(t, result, 1)
	assert.Equal(t, "depends", result[0].ID)
}

func TestFilterMethodsDirectionRegionCurrency(t *testing.T) {
	methods := []PaymentMethod{
		testMethod("depositOnly", "0%", func(m *PaymentMethod) {
			m.Directions = []string{DirectionDeposit}
		}),
		testMethod("withdrawalOnly", "0%", func(m *PaymentMethod) {
			m.Directions = []string{DirectionWithdrawal}
			m.Regions = []string{"middle-east"}
			m.Currencies = []string{"EUR"}
		}),
		testMethod("global", "0%", func(m *PaymentMethod) {
			m.Regions = []string{"global"}
			m.Currencies = []string{"USDT"}
		}),
	}

	assert.Equal(t, []string{"depositOnly", "withdrawalOnly", "global"}, ids(FilterMethods(methods, openFilters)))

	filters := openFilters
	filters.Direction = DirectionDeposit
	assert.Equal(t, []string{"depositOnly", "global"}, ids(FilterMethods(methods, filters)))

	filters = openFilters
	filters.Region = "middle-east"
	assert.Equal(t, []string{"withdrawalOnly", "global"}, ids(FilterMethods(methods, filters)),
		"global methods satisfy any region filter")

	filters = openFilters
	filters.Currency = "USD"
	assert.Equal(t, []string{"depositOnly"}, ids(FilterMethods(methods, filters)))
}

func TestFilterMethodsSpeedBuckets(t *testing.T) {
	methods := []PaymentMethod{
		testMethod("instant", "0%"),
		testMethod("sameDay", "0%", func(m *PaymentMethod) { m.ProcessingTime = "Same day" }),
		testMethod("slow", "0%", func(m *PaymentMethod) { m.ProcessingTime = "1-3 business days" }),
	}

	filters := openFilters
	filters.Speed = SpeedInstant
	assert.Equal(t, []string{"instant"}, ids(FilterMethods(methods, filters)))

	filters.Speed = SpeedSameDay
	assert.Equal(t, []string{"instant", "sameDay"}, ids(FilterMethods(methods, filters)),
		"instant methods count as same-day")

	filters.Speed = SpeedUpToDays
	assert.Equal(t, []string{"sameDay", "slow"}, ids(FilterMethods(methods, filters)))
}

func TestCatalogFilters(t *testing.T) {
	filters := openFilters
	filters.Region = "lebanon"
	result := FilterMethods(Methods, filters)
	assert.Contains(t, ids(result), "omt")
	assert.Contains(t, ids(result), "crypto-usdt", "global methods show everywhere")

	filters = openFilters
	filters.Currency = "USDT"
	result = FilterMethods(Methods, filters)
	require.Len(t, result, 1)
	assert.Equal(t, "crypto-usdt", result[0].ID)
}
