package runner

// OrderAmount объём в базовой валюте: (маржа * плечо) / цена.
func OrderAmount(margin float64, leverage int, price float64) float64 {
	if price <= 0 || leverage <= 0 || margin <= 0 {
		return 0
	}
	return margin * float64(leverage) / price
}

// Notional стоимость позиции в USDT.
func Notional(margin float64, leverage int) float64 {
	return margin * float64(leverage)
}
