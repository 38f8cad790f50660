package domain

import "time"

// Candle es el registro de precios de un día para un símbolo.
// High, Low y Volume se conservan pero el cálculo de retornos no los usa.
type Candle struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// OpeningPrice devuelve el open del primer candle. ok=false si no hay candles.
// Asume candles en orden cronológico ascendente.
func OpeningPrice(candles []Candle) (float64, bool) {
	if len(candles) == 0 {
		return 0, false
	}
	return candles[0].Open, true
}

// ClosingPrice devuelve el close del último candle. ok=false si no hay candles.
func ClosingPrice(candles []Candle) (float64, bool) {
	if len(candles) == 0 {
		return 0, false
	}
	return candles[len(candles)-1].Close, true
}
