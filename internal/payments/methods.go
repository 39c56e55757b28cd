package payments

import (
	"strconv"
	"strings"
)

// PaymentMethod describes one deposit or withdrawal channel in the
// static catalog.
type PaymentMethod struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Directions     []string `json:"directions"`
	Regions        []string `json:"regions"`
	Currencies     []string `json:"currencies"`
	ProcessingTime string   `json:"processingTime"`
	Fee            string   `json:"fee"`
	MinAmount      string   `json:"minAmount"`
	MaxAmount      string   `json:"maxAmount"`
	DailyLimit     string   `json:"dailyLimit,omitempty"`
	KYC            string   `json:"kyc"`
	Description    string   `json:"description,omitempty"`
}

// Filters narrows the catalog. The zero value of a string field is not
// a valid filter; use "all" for no restriction.
type Filters struct {
	Direction string  `json:"direction"`
	Region    string  `json:"region"`
	Currency  string  `json:"currency"`
	Speed     string  `json:"speed"`
	MaxFee    float64 `json:"maxFee"`
}

const (
	DirectionDeposit    = "deposit"
	DirectionWithdrawal = "withdrawal"

	SpeedInstant  = "instant"
	SpeedSameDay  = "same-day"
	SpeedUpToDays = "1-3-days"

	regionGlobal = "global"
)

// Methods are the supported payment channels.
var Methods = []PaymentMethod{
	{
		ID:             "local-bank",
		Name:           "Local Bank Transfer",
		Type:           "bank",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{"middle-east", "lebanon"},
		Currencies:     []string{"USD"},
		ProcessingTime: "1-3 business days",
		Fee:            "Depends on bank",
		MinAmount:      "$25",
		MaxAmount:      "$25,000",
		DailyLimit:     "$50,000",
		KYC:            "basic",
		Description:    "Convenient local bank transfers",
	},
	{
		ID:             "omt",
		Name:           "OMT (Optimum Money Transfer)",
		Type:           "local",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{"lebanon"},
		Currencies:     []string{"USD"},
		ProcessingTime: "Same day",
		Fee:            "0%",
		MinAmount:      "$25",
		MaxAmount:      "$5,000",
		DailyLimit:     "$10,000",
		KYC:            "basic",
		Description:    "Popular Lebanese money transfer service",
	},
	{
		ID:             "wish-money",
		Name:           "Whish Money",
		Type:           "local",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{"lebanon"},
		Currencies:     []string{"USD"},
		ProcessingTime: "Instant",
		Fee:            "0%",
		MinAmount:      "$25",
		MaxAmount:      "$5,000",
		DailyLimit:     "$10,000",
		KYC:            "basic",
		Description:    "Trusted Lebanese payment solution",
	},
	{
		ID:             "vision-express",
		Name:           "Vision Express",
		Type:           "local",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{"lebanon"},
		Currencies:     []string{"USD"},
		ProcessingTime: "Same day",
		Fee:            "0%",
		MinAmount:      "$25",
		MaxAmount:      "$3,000",
		DailyLimit:     "$5,000",
		KYC:            "basic",
		Description:    "Fast local payment service in Lebanon",
	},
	{
		ID:             "bob-finance",
		Name:           "Bob Finance",
		Type:           "local",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{"lebanon"},
		Currencies:     []string{"USD"},
		ProcessingTime: "Same day",
		Fee:            "0%",
		MinAmount:      "$25",
		MaxAmount:      "$5,000",
		DailyLimit:     "$10,000",
		KYC:            "basic",
		Description:    "Modern Lebanese fintech solution",
	},
	{
		ID:             "crypto-usdt",
		Name:           "USDT (Tether)",
		Type:           "crypto",
		Directions:     []string{DirectionDeposit, DirectionWithdrawal},
		Regions:        []string{regionGlobal},
		Currencies:     []string{"USDT"},
		ProcessingTime: "Instant",
		Fee:            "0%",
		MinAmount:      "$20",
		MaxAmount:      "$50,000",
		DailyLimit:     "$100,000",
		KYC:            "advanced",
		Description:    "Stable cryptocurrency pegged to USD",
	},
}

// FilterMethods applies all filters, preserving catalog order. Methods
// whose regions include "global" satisfy any region filter.
func FilterMethods(methods []PaymentMethod, filters Filters) []PaymentMethod {
	out := make([]PaymentMethod, 0, len(methods))
	for _, method := range methods {
		if filters.Direction != "all" && filters.Direction != "" && !contains(method.Directions, filters.Direction) {
			continue
		}
		if filters.Region != "all" && filters.Region != "" &&
			!contains(method.Regions, filters.Region) && !contains(method.Regions, regionGlobal) {
			continue
		}
		if filters.Currency != "all" && filters.Currency != "" && !contains(method.Currencies, filters.Currency) {
			continue
		}
		if !matchesSpeed(method.ProcessingTime, filters.Speed) {
			continue
		}
		if feeValue(method.Fee) > filters.MaxFee {
			continue
		}
		out = append(out, method)
	}
	return out
}

func matchesSpeed(processingTime, speed string) bool {
	if speed == "all" || speed == "" {
		return true
	}
	t := strings.ToLower(processingTime)
	switch speed {
	case SpeedInstant:
		return strings.Contains(t, "instant")
	case SpeedSameDay:
		return strings.Contains(t, "same") || strings.Contains(t, "instant")
	case SpeedUpToDays:
		return strings.Contains(t, "day") || strings.Contains(t, "business")
	}
	return true
}

// feeValue parses "1.9%" as 1.9. Non-numeric fees such as "Depends on
// bank" count as zero so they always pass the fee cap.
func feeValue(fee string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(fee), "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
