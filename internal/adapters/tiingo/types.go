package tiingo

// DTOs raw de la API de Tiingo. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// dailyPrice es un item de GET /tiingo/daily/{ticker}/prices.
type dailyPrice struct {
	Date        string  `json:"date"` // "2019-01-02T00:00:00.000Z"
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	AdjOpen     float64 `json:"adjOpen"`
	AdjHigh     float64 `json:"adjHigh"`
	AdjLow      float64 `json:"adjLow"`
	AdjClose    float64 `json:"adjClose"`
	AdjVolume   float64 `json:"adjVolume"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}
