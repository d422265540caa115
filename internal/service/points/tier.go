package points

// Tier is a rewards level derived from cumulative points.
type Tier struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Color string `json:"color"`
	// Min is the first point value of the tier.
	Min int `json:"min"`
	// Next is the threshold of the following tier. For Diamante it is only a progress-bar ceiling.
	Next int `json:"next"`
}

// Tiers in ascending order.
var Tiers = []Tier{
	{Name: "Bronze", Label: "Bronze", Color: "#CD7F32", Min: 0, Next: 100},
	{Name: "Prata", Label: "Silver", Color: "#C0C0C0", Min: 100, Next: 500},
	{Name: "Ouro", Label: "Gold", Color: "#FFD700", Min: 500, Next: 1000},
	{Name: "Platina", Label: "Platinum", Color: "#E5E4E2", Min: 1000, Next: 5000},
	{Name: "Diamante", Label: "Diamond", Color: "#B9F2FF", Min: 5000, Next: 10000},
}

// TierFor returns the tier for total points. Negative totals count as zero.
func TierFor(points int) Tier {
	points = clamp(points)
	top := len(Tiers) - 1
	for _, t := range Tiers[:top] {
		if points < t.Next {
			return t
		}
	}
	return Tiers[top]
}

// Progress is the 0-100 position of points between the tier floor and its next threshold.
func Progress(points int) int {
	points = clamp(points)
	t := TierFor(points)
	if points <= t.Min {
		return 0
	}
	if points >= t.Next {
		return 100
	}
	return (points - t.Min) * 100 / (t.Next - t.Min)
}

// PointsToNext is how many points are missing for the next tier; zero at the top tier.
func PointsToNext(points int) int {
	points = clamp(points)
	t := TierFor(points)
	if t == Tiers[len(Tiers)-1] || points >= t.Next {
		return 0
	}
	return t.Next - points
}

func clamp(points int) int {
	if points < 0 {
		return 0
	}
	return points
}
