package augment

import (
	"fmt"
	"math"

	"github.com/leaselens/leaselens/internal/model"
)

// noiseSource is a known loud facility with its high/medium distance bands
// in miles.
type noiseSource struct {
	name     string
	lat, lon float64
	highMi   float64
	mediumMi float64
}

// Major-airport and motorway-corridor proximity table. Deliberately coarse:
// the noise signal is a heuristic tier, not a dB model.
var noiseSources = []noiseSource{
	{"LAX airport", 33.9416, -118.4085, 3, 6},
	{"SFO airport", 37.6213, -122.3790, 3, 6},
	{"JFK airport", 40.6413, -73.7781, 3, 6},
	{"LaGuardia airport", 40.7769, -73.8740, 3, 6},
	{"O'Hare airport", 41.9742, -87.9073, 3, 6},
	{"DFW airport", 32.8998, -97.0403, 3, 6},
	{"ATL airport", 33.6407, -84.4277, 3, 6},
	{"SEA airport", 47.4502, -122.3088, 3, 6},
	{"I-405 corridor (LA)", 34.0310, -118.4430, 0.5, 1.5},
	{"I-10 corridor (LA)", 34.0301, -118.2850, 0.5, 1.5},
	{"I-5 corridor (Seattle)", 47.6080, -122.3300, 0.5, 1.5},
	{"I-95 corridor (NYC)", 40.8400, -73.9200, 0.5, 1.5},
	{"I-290 corridor (Chicago)", 41.8720, -87.7000, 0.5, 1.5},
}

// haversineMi returns the great-circle distance in miles.
func haversineMi(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMi = 3958.8
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMi * math.Asin(math.Sqrt(a))
}

// assessNoise tiers the location against the proximity table.
func assessNoise(geo *model.Geocode) *model.Noise {
	if geo == nil {
		return nil
	}
	tier := "low"
	var reasons []string
	for _, src := range noiseSources {
		d := haversineMi(geo.Lat, geo.Lon, src.lat, src.lon)
		switch {
		case d <= src.highMi:
			tier = "high"
			reasons = append(reasons, fmt.Sprintf("%.1f mi from %s", d, src.name))
		case d <= src.mediumMi:
			if tier == "low" {
				tier = "medium"
			}
			reasons = append(reasons, fmt.Sprintf("%.1f mi from %s", d, src.name))
		}
	}
	return &model.Noise{Tier: tier, Reasons: reasons}
}
