package augment

import (
	"math"

	"github.com/leaselens/leaselens/internal/model"
)

// avgUrbanSpeedMph is the assumed average driving speed; the commute figure
// is a labeled estimate, not a routed calculation, and must stay one.
const avgUrbanSpeedMph = 28.0

const commuteMethod = "straight_line_estimate"

// estimateCommute converts straight-line distance between home and work into
// a rough driving-time range (±~25% around the point estimate).
func estimateCommute(home, work *model.Geocode) *model.Commute {
	if home == nil || work == nil {
		return nil
	}
	distMi := haversineMi(home.Lat, home.Lon, work.Lat, work.Lon)
	pointMin := distMi / avgUrbanSpeedMph * 60

	lo := int(math.Max(1, math.Floor(pointMin*0.75)))
	hi := int(math.Max(float64(lo), math.Ceil(pointMin*1.25)))
	return &model.Commute{
		DistanceMi:     math.Round(distMi*10) / 10,
		DrivingTimeMin: lo,
		DrivingTimeMax: hi,
		Method:         commuteMethod,
	}
}
