package geo

import "context"

// Location is a geographic fix attached to a capture session. Zero
// coordinates are a valid "no location" sentinel on the wire, so absence is
// modelled by a nil *Location, not by zero values.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Locator produces the current location. Implementations make a single
// attempt and honor the caller's deadline; there are no retries.
type Locator interface {
	Current(ctx context.Context) (Location, error)
}

// Static always reports a fixed position, the CLI analogue of a device fix
// for field terminals installed at a known site.
type Static struct {
	Latitude  float64
	Longitude float64
}

func (s Static) Current(ctx context.Context) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	return Location{Latitude: s.Latitude, Longitude: s.Longitude}, nil
}

// Unavailable is a Locator with no position source.
type Unavailable struct{}

func (Unavailable) Current(context.Context) (Location, error) {
	return Location{}, ErrNoLocation
}

// ErrNoLocation is returned when no position source exists.
var ErrNoLocation = errNoLocation{}

type errNoLocation struct{}

func (errNoLocation) Error() string { return "no location source available" }
