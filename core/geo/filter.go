package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	UNIT_M  = "m"
	UNIT_KM = "km"
	UNIT_MI = "mi"
	UNIT_FT = "ft"
)

var unitFactors = map[string]float64{
	UNIT_M:  1,
	UNIT_KM: 1000,
	UNIT_MI: 1609.34,
	UNIT_FT: 0.3048,
}

const (
	MIN_LON = -180.0
	MAX_LON = 180.0
	MIN_LAT = -85.05112878
	MAX_LAT = 85.05112878
)

var ErrInvalidFilter = errors.New("invalid geo filter")

// Selects the documents whose Property lies within Radius of (Lon, Lat).
type GeoFilter struct {
	Property string
	Lat      float64
	Lon      float64
	Radius   float64
	Unit     string
}

func NewGeoFilter(lon, lat, radius float64, unit string) *GeoFilter {
	return &GeoFilter{Lon: lon, Lat: lat, Radius: radius, Unit: unit}
}

// Checks that coordinates are in range, the radius is positive and the
// unit is known.
func (f *GeoFilter) Validate() error {
	if err := validateCoordinates(f.Lon, f.Lat); err != nil {
		return err
	}
	if !(f.Radius > 0) {
		return errors.Wrapf(ErrInvalidFilter, "radius must be > 0 (got %v)", f.Radius)
	}
	if _, ok := unitFactors[f.Unit]; !ok {
		return errors.Wrapf(ErrInvalidFilter, "unknown unit %q", f.Unit)
	}
	return nil
}

func validateCoordinates(lon, lat float64) error {
	if !(lon >= MIN_LON && lon <= MAX_LON) {
		return errors.Wrapf(ErrInvalidFilter, "longitude %v out of range", lon)
	}
	if !(lat >= MIN_LAT && lat <= MAX_LAT) {
		return errors.Wrapf(ErrInvalidFilter, "latitude %v out of range", lat)
	}
	return nil
}

// Radius in meters.
func (f *GeoFilter) RadiusMeters() float64 {
	return f.Radius * unitFactors[f.Unit]
}

func (f *GeoFilter) String() string {
	return fmt.Sprintf("@%v:[%v %v %v %v]", f.Property, f.Lon, f.Lat, f.Radius, f.Unit)
}

// Same as NewGeoConfig().ParseGeoFilter(args).
func ParseGeoFilter(args []string) (*GeoFilter, error) {
	return NewGeoConfig().ParseGeoFilter(args)
}

/*
Parses a filter from its arguments:

	property lon lat radius [unit]

The unit is matched case-insensitively and defaults to DefaultUnit().
The result is validated.
*/
func (conf *GeoConfig) ParseGeoFilter(args []string) (*GeoFilter, error) {
	if len(args) < 4 || len(args) > 5 {
		return nil, errors.Wrapf(ErrInvalidFilter, "want property, lon, lat, radius and unit, got %v arguments", len(args))
	}
	var nums [3]float64
	for i, name := range []string{"longitude", "latitude", "radius"} {
		v, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFilter, "bad %v %q", name, args[i+1])
		}
		nums[i] = v
	}
	unit := conf.defaultUnit
	if len(args) == 5 {
		unit = strings.ToLower(args[4])
	}
	f := NewGeoFilter(nums[0], nums[1], nums[2], unit)
	f.Property = args[0]
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
