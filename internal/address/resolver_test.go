package address

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infohub/internal/domain"
	"infohub/internal/localstore"
)

type stubDirectory struct {
	entry *DirectoryEntry
	err   error
	calls int
	last  string
}

func (s *stubDirectory) Lookup(_ context.Context, cep string) (*DirectoryEntry, error) {
	s.calls++
	s.last = cep
	if s.err != nil {
		return nil, s.err
	}
	e := *s.entry
	e.PostalCode = cep
	return &e, nil
}

type stubGeocoder struct {
	point   Point
	err     error
	calls   atomic.Int32
	block   chan struct{}
	lastQry string
}

func (s *stubGeocoder) Geocode(ctx context.Context, query string) (Point, error) {
	s.calls.Add(1)
	s.lastQry = query
	if s.block != nil {
		// ignores ctx on purpose
		<-s.block
	}
	return s.point, s.err
}

type stubCentroids struct {
	centroid *domain.Centroid
	err      error
}

func (s *stubCentroids) Lookup(_ context.Context, _, _ string) (*domain.Centroid, error) {
	return s.centroid, s.err
}

func paulista() *stubDirectory {
	return &stubDirectory{entry: &DirectoryEntry{
		Street:       "Avenida Paulista",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
	}}
}

func TestResolveStaticCityMakesNoGeocodeCall(t *testing.T) {
	dir := paulista()
	geo := &stubGeocoder{}
	r := NewResolver(dir, geo, nil)

	addr, err := r.Resolve(context.Background(), "01310-100")
	require.NoError(t, err)

	assert.Equal(t, "01310100", dir.last)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.State)
	assert.Equal(t, "-23.5505", addr.Latitude)
	assert.Equal(t, "-46.6333", addr.Longitude)
	assert.Equal(t, domain.CoordinateSourceStatic, addr.CoordinateSource)
	assert.Zero(t, geo.calls.Load())
}

func TestResolveEveryStaticCitySkipsGeocoder(t *testing.T) {
	for _, c := range StaticCentroids() {
		dir := &stubDirectory{entry: &DirectoryEntry{City: c.City, State: c.State}}
		geo := &stubGeocoder{err: errors.New("must not be called")}
		r := NewResolver(dir, geo, nil)

		addr, err := r.Resolve(context.Background(), "12345678")
		require.NoError(t, err, c.City)
		assert.Equal(t, formatDegrees(c.Latitude), addr.Latitude, c.City)
		assert.Equal(t, formatDegrees(c.Longitude), addr.Longitude, c.City)
		assert.Zero(t, geo.calls.Load(), c.City)
	}
}

func TestResolveStaticLookupIgnoresCaseAndAccents(t *testing.T) {
	_, ok := StaticCentroid("SAO PAULO", "sp")
	assert.True(t, ok)
	_, ok = StaticCentroid("Brasilia", "DF")
	assert.True(t, ok)
	_, ok = StaticCentroid("Campinas", "SP")
	assert.False(t, ok)
}

// fixedDirectory is safe for concurrent lookups.
type fixedDirectory struct {
	entry DirectoryEntry
}

func (f fixedDirectory) Lookup(_ context.Context, cep string) (*DirectoryEntry, error) {
	e := f.entry
	e.PostalCode = cep
	return &e, nil
}

func TestResolveConcurrentStaticLookups(t *testing.T) {
	geo := &stubGeocoder{err: errors.New("must not be called")}
	r := NewResolver(fixedDirectory{entry: DirectoryEntry{City: "São Paulo", State: "SP"}}, geo, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr, err := r.Resolve(context.Background(), "01310100")
			if err != nil {
				errs <- err
				return
			}
			if addr.CoordinateSource != domain.CoordinateSourceStatic || addr.Latitude != "-23.5505" {
				errs <- errors.New("static centroid missed: " + addr.CoordinateSource + " " + addr.Latitude)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Zero(t, geo.calls.Load())
}

func TestResolveInvalidFormat(t *testing.T) {
	dir := paulista()
	r := NewResolver(dir, nil, nil)
	for _, raw := range []string{"", "1234-567", "123456789", "abc"} {
		_, err := r.Resolve(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrInvalidFormat, raw)
	}
	assert.Zero(t, dir.calls)
}

func TestResolveNotFoundIsFatal(t *testing.T) {
	dir := &stubDirectory{err: domain.ErrNotFound}
	geo := &stubGeocoder{}
	r := NewResolver(dir, geo, nil)

	_, err := r.Resolve(context.Background(), "99999-999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, geo.calls.Load())
}

func TestResolveUsesGeocoderForUnknownCity(t *testing.T) {
	dir := &stubDirectory{entry: &DirectoryEntry{Street: "Rua Barão de Jaguara", City: "Campinas", State: "SP"}}
	geo := &stubGeocoder{point: Point{Latitude: -22.9056, Longitude: -47.0608}}
	r := NewResolver(dir, geo, nil)

	addr, err := r.Resolve(context.Background(), "13015-000")
	require.NoError(t, err)
	assert.Equal(t, "-22.9056", addr.Latitude)
	assert.Equal(t, "-47.0608", addr.Longitude)
	assert.Equal(t, domain.CoordinateSourceGeocoder, addr.CoordinateSource)
	assert.Equal(t, int32(1), geo.calls.Load())
	assert.Equal(t, "Rua Barão de Jaguara, Campinas, SP, Brasil", geo.lastQry)
}

func TestResolveGeocoderFailureFallsBackToDefault(t *testing.T) {
	dir := &stubDirectory{entry: &DirectoryEntry{City: "Campinas", State: "SP"}}
	for name, geo := range map[string]*stubGeocoder{
		"error": {err: domain.ErrBackendUnavailable},
		"empty": {err: domain.ErrNotFound},
	} {
		r := NewResolver(dir, geo, nil)
		addr, err := r.Resolve(context.Background(), "13015000")
		require.NoError(t, err, name)
		assert.Equal(t, "-23.5505", addr.Latitude, name)
		assert.Equal(t, "-46.6333", addr.Longitude, name)
		assert.Equal(t, domain.CoordinateSourceDefault, addr.CoordinateSource, name)
	}
}

func TestResolveGeocoderTimeoutFallsBackToDefault(t *testing.T) {
	dir := &stubDirectory{entry: &DirectoryEntry{City: "Campinas", State: "SP"}}
	geo := &stubGeocoder{block: make(chan struct{})}
	t.Cleanup(func() { close(geo.block) })
	r := NewResolver(dir, geo, nil, WithGeocodeTimeout(30*time.Millisecond))

	start := time.Now()
	addr, err := r.Resolve(context.Background(), "13015000")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, DefaultPoint.Latitude, mustParse(t, addr.Latitude))
	assert.Equal(t, DefaultPoint.Longitude, mustParse(t, addr.Longitude))
}

func TestResolveCentroidCatalogBeforeGeocoder(t *testing.T) {
	dir := &stubDirectory{entry: &DirectoryEntry{City: "Campinas", State: "SP"}}
	geo := &stubGeocoder{}
	catalog := &stubCentroids{centroid: &domain.Centroid{City: "Campinas", State: "SP", Latitude: -22.9, Longitude: -47.06}}
	r := NewResolver(dir, geo, nil, WithCentroidCatalog(catalog))

	addr, err := r.Resolve(context.Background(), "13015000")
	require.NoError(t, err)
	assert.Equal(t, "-22.9", addr.Latitude)
	assert.Equal(t, domain.CoordinateSourceCatalog, addr.CoordinateSource)
	assert.Zero(t, geo.calls.Load())
}

func TestResolveCentroidCatalogErrorIsIgnored(t *testing.T) {
	dir := &stubDirectory{entry: &DirectoryEntry{City: "Campinas", State: "SP"}}
	geo := &stubGeocoder{point: Point{Latitude: 1, Longitude: 2}}
	r := NewResolver(dir, geo, nil, WithCentroidCatalog(&stubCentroids{err: errors.New("db down")}))

	addr, err := r.Resolve(context.Background(), "13015000")
	require.NoError(t, err)
	assert.Equal(t, domain.CoordinateSourceGeocoder, addr.CoordinateSource)
}

func TestSaveLoadRemove(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	dir := paulista()
	dir.entry.Complement = "lado par"
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewResolver(dir, nil, nil, WithClock(func() time.Time { return fixed }))

	_, err := r.Save(ctx, store, Form{PostalCode: "01310-100"})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	saved, err := r.Save(ctx, store, Form{PostalCode: "01310-100", Number: " 1000 "})
	require.NoError(t, err)
	assert.Equal(t, "Avenida Paulista, 1000, lado par, Bela Vista, São Paulo - SP, 01310-100", saved.FormattedAddress)
	assert.Equal(t, fixed, saved.CreatedAt)

	saved, err = r.Save(ctx, store, Form{PostalCode: "01310100", Number: "1000", Complement: "Apto 12"})
	require.NoError(t, err)
	assert.Equal(t, "Apto 12", saved.Complement)

	loaded, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, saved.FormattedAddress, loaded.FormattedAddress)
	assert.Equal(t, "-23.5505", loaded.Latitude)

	require.NoError(t, Remove(ctx, store))
	_, err = Load(ctx, store)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFormatAddressWithoutComplement(t *testing.T) {
	got := FormatAddress(domain.Address{
		PostalCode: "20040002", Street: "Rua da Assembleia", Number: "10",
		Neighborhood: "Centro", City: "Rio de Janeiro", State: "RJ",
	})
	assert.Equal(t, "Rua da Assembleia, 10, Centro, Rio de Janeiro - RJ, 20040-002", got)
}

func mustParse(t *testing.T, s string) float64 {
	t.Helper()
	var f flexFloat
	require.NoError(t, f.UnmarshalJSON([]byte(s)))
	return float64(f)
}
