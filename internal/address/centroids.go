package address

import (
	"context"
	"strconv"

	"infohub/internal/domain"
)

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// DefaultPoint is the last-resort coordinate pair (São Paulo center).
var DefaultPoint = Point{Latitude: -23.5505, Longitude: -46.6333}

var staticCentroids = map[string]Point{
	cityKey("São Paulo", "SP"):      {-23.5505, -46.6333},
	cityKey("Rio de Janeiro", "RJ"): {-22.9068, -43.1729},
	cityKey("Belo Horizonte", "MG"): {-19.9167, -43.9345},
	cityKey("Brasília", "DF"):       {-15.7939, -47.8828},
	cityKey("Salvador", "BA"):       {-12.9714, -38.5014},
	cityKey("Fortaleza", "CE"):      {-3.7319, -38.5267},
	cityKey("Curitiba", "PR"):       {-25.4284, -49.2733},
	cityKey("Recife", "PE"):         {-8.0476, -34.8770},
	cityKey("Porto Alegre", "RS"):   {-30.0346, -51.2177},
	cityKey("Manaus", "AM"):         {-3.1190, -60.0217},
}

// StaticCentroid returns the built-in centroid for a city, if known.
func StaticCentroid(city, state string) (Point, bool) {
	p, ok := staticCentroids[cityKey(city, state)]
	return p, ok
}

// StaticCentroids lists the built-in table.
func StaticCentroids() []domain.Centroid {
	names := []struct{ city, state string }{
		{"São Paulo", "SP"}, {"Rio de Janeiro", "RJ"}, {"Belo Horizonte", "MG"}, {"Brasília", "DF"},
		{"Salvador", "BA"}, {"Fortaleza", "CE"}, {"Curitiba", "PR"}, {"Recife", "PE"},
		{"Porto Alegre", "RS"}, {"Manaus", "AM"},
	}
	out := make([]domain.Centroid, 0, len(names))
	for _, n := range names {
		p := staticCentroids[cityKey(n.city, n.state)]
		out = append(out, domain.Centroid{City: n.city, State: n.state, Latitude: p.Latitude, Longitude: p.Longitude})
	}
	return out
}

// CentroidLookup finds operator-maintained centroids beyond the static table.
type CentroidLookup interface {
	Lookup(ctx context.Context, city, state string) (*domain.Centroid, error)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
