package address

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"infohub/internal/domain"
	"infohub/internal/localstore"
)

// DefaultGeocodeTimeout bounds the network geocoding step.
const DefaultGeocodeTimeout = 3 * time.Second

// Form is the address form submission.
type Form struct {
	PostalCode string `json:"cep"`
	Number     string `json:"numero"`
	Complement string `json:"complemento"`
}

// Resolver turns postal codes into address records with coordinates.
type Resolver struct {
	directory      Directory
	geocoder       Geocoder
	centroids      CentroidLookup
	geocodeTimeout time.Duration
	logger         *log.Logger
	now            func() time.Time
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithCentroidCatalog consults lookup after the static table and before the geocoder.
func WithCentroidCatalog(lookup CentroidLookup) Option {
	return func(r *Resolver) { r.centroids = lookup }
}

// WithGeocodeTimeout overrides DefaultGeocodeTimeout.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.geocodeTimeout = d
		}
	}
}

// WithClock overrides the createdAt clock.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver builds a Resolver. geocoder may be nil, in which case unknown cities get DefaultPoint.
func NewResolver(directory Directory, geocoder Geocoder, logger *log.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	r := &Resolver{
		directory:      directory,
		geocoder:       geocoder,
		geocodeTimeout: DefaultGeocodeTimeout,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up rawPostalCode and attaches coordinates. Only input and directory failures are returned;
// coordinate resolution always succeeds.
func (r *Resolver) Resolve(ctx context.Context, rawPostalCode string) (*domain.Address, error) {
	cep, err := NormalizePostalCode(rawPostalCode)
	if err != nil {
		return nil, err
	}
	entry, err := r.directory.Lookup(ctx, cep)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Printf("address: cep=%s not found", cep)
		} else {
			r.logger.Printf("address: cep=%s lookup error=%v", cep, err)
		}
		return nil, err
	}

	addr := &domain.Address{
		PostalCode:   cep,
		Street:       entry.Street,
		Complement:   entry.Complement,
		Neighborhood: entry.Neighborhood,
		City:         entry.City,
		State:        entry.State,
	}
	point, source := r.Coordinates(ctx, addr.Street, addr.City, addr.State)
	addr.Latitude = formatDegrees(point.Latitude)
	addr.Longitude = formatDegrees(point.Longitude)
	addr.CoordinateSource = source
	addr.FormattedAddress = FormatAddress(*addr)
	return addr, nil
}

// Coordinates runs the fallback chain: static table, centroid catalog, geocoder, DefaultPoint.
func (r *Resolver) Coordinates(ctx context.Context, street, city, state string) (Point, string) {
	if p, ok := StaticCentroid(city, state); ok {
		return p, domain.CoordinateSourceStatic
	}

	if r.centroids != nil {
		c, err := r.centroids.Lookup(ctx, city, state)
		switch {
		case err == nil && c != nil:
			return Point{Latitude: c.Latitude, Longitude: c.Longitude}, domain.CoordinateSourceCatalog
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			r.logger.Printf("address: centroid catalog city=%s state=%s error=%v", city, state, err)
		}
	}

	if r.geocoder != nil {
		p, err := r.geocode(ctx, geocodeQuery(street, city, state))
		if err == nil {
			return p, domain.CoordinateSourceGeocoder
		}
		r.logger.Printf("address: geocode city=%s state=%s error=%v", city, state, err)
	}

	r.logger.Printf("address: using default coordinates city=%s state=%s", city, state)
	return DefaultPoint, domain.CoordinateSourceDefault
}

// geocode enforces the timeout even if the geocoder ignores its context.
func (r *Resolver) geocode(ctx context.Context, query string) (Point, error) {
	ctx, cancel := context.WithTimeout(ctx, r.geocodeTimeout)
	defer cancel()

	type result struct {
		p   Point
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := r.geocoder.Geocode(ctx, query)
		ch <- result{p, err}
	}()

	select {
	case res := <-ch:
		return res.p, res.err
	case <-ctx.Done():
		return Point{}, ctx.Err()
	}
}

func geocodeQuery(street, city, state string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{street, city, state} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, "Brasil")
	return strings.Join(parts, ", ")
}

// Save resolves the form's postal code and persists the full record under localstore.KeyAddress.
func (r *Resolver) Save(ctx context.Context, store localstore.Store, form Form) (*domain.Address, error) {
	number := strings.TrimSpace(form.Number)
	if number == "" {
		return nil, fmt.Errorf("number required: %w", domain.ErrInvalidFormat)
	}
	addr, err := r.Resolve(ctx, form.PostalCode)
	if err != nil {
		return nil, err
	}
	addr.Number = number
	if c := strings.TrimSpace(form.Complement); c != "" {
		addr.Complement = c
	}
	addr.FormattedAddress = FormatAddress(*addr)
	addr.CreatedAt = r.now()

	if err := localstore.SetJSON(ctx, store, localstore.KeyAddress, addr); err != nil {
		return nil, fmt.Errorf("persist address: %w", err)
	}
	r.logger.Printf("address: saved cep=%s source=%s", addr.PostalCode, addr.CoordinateSource)
	return addr, nil
}

// Load returns the persisted address or domain.ErrNotFound.
func Load(ctx context.Context, store localstore.Store) (*domain.Address, error) {
	var addr domain.Address
	if err := localstore.GetJSON(ctx, store, localstore.KeyAddress, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// Remove deletes the persisted address.
func Remove(ctx context.Context, store localstore.Store) error {
	return store.Remove(ctx, localstore.KeyAddress)
}
