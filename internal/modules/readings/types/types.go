package types

// Reading is one air-quality observation. Datetime is its identity: storing a
// Reading with an existing Datetime replaces the previous one.
type Reading struct {
	Datetime string  `json:"datetime" dynamodbav:"datetime"`
	Location string  `json:"location" dynamodbav:"location"`
	PM1      float64 `json:"pm1" dynamodbav:"pm1"`
	PM25     float64 `json:"pm2_5" dynamodbav:"pm2_5"`
	PM10     float64 `json:"pm10" dynamodbav:"pm10"`
}
