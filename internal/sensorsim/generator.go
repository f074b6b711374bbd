package sensorsim

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/types"
)

// datetimeLayout is RFC 3339 with fixed millisecond precision so readings
// sent less than a second apart get distinct keys.
const datetimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Generator produces plausible particulate readings. Values drift slowly
// around a baseline and keep pm1 <= pm2_5 <= pm10.
type Generator struct {
	rng      *rand.Rand
	location string
	now      func() time.Time
	pm25     float64
}

func NewGenerator(seed int64, location string) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
		location: location,
		now:      time.Now,
		pm25:     8,
	}
}

func (g *Generator) Next() types.Reading {
	// Random walk, clamped to a realistic range for wildfire season.
	g.pm25 += g.rng.NormFloat64() * 1.5
	g.pm25 = math.Min(math.Max(g.pm25, 0.5), 250)

	pm1 := g.pm25 * (0.6 + 0.2*g.rng.Float64())
	pm10 := g.pm25 * (1.2 + 0.5*g.rng.Float64())

	return types.Reading{
		Datetime: g.now().UTC().Format(datetimeLayout),
		Location: g.location,
		PM1:      round1(pm1),
		PM25:     round1(g.pm25),
		PM10:     round1(pm10),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
