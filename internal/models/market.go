package models

import "time"

// SwapRate is the overnight financing charge for a symbol, in points
// per lot. Rates typically update once a day around 5 PM EST.
type SwapRate struct {
	Symbol      string    `json:"symbol"`
	SwapLong    float64   `json:"swap_long"`
	SwapShort   float64   `json:"swap_short"`
	LastUpdated time.Time `json:"last_updated"`
}
