package domain

import "time"

// Coordinate sources, from most to least trusted.
const (
	CoordinateSourceStatic   = "static"
	CoordinateSourceCatalog  = "catalog"
	CoordinateSourceGeocoder = "geocoder"
	CoordinateSourceDefault  = "default"
)

// Address is the delivery address captured by the address form.
type Address struct {
	PostalCode       string    `json:"cep"`
	Street           string    `json:"logradouro"`
	Number           string    `json:"numero"`
	Complement       string    `json:"complemento"`
	Neighborhood     string    `json:"bairro"`
	City             string    `json:"cidade"`
	State            string    `json:"estado"`
	Latitude         string    `json:"latitude,omitempty"`
	Longitude        string    `json:"longitude,omitempty"`
	CoordinateSource string    `json:"origemCoordenadas,omitempty"`
	FormattedAddress string    `json:"enderecoFormatado"`
	CreatedAt        time.Time `json:"dataCriacao"`
}

// Centroid is a known city center.
type Centroid struct {
	City      string    `json:"city"`
	State     string    `json:"state"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}
