package value

type Location struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
}
