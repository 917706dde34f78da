package geo

import (
	"fmt"
	"strings"
)

// Key format of a geo index: index name, then field name.
const DEFAULT_KEY_FORMAT = "geo:%s/%s"

const DEFAULT_UNIT = UNIT_KM

/*
Holds the configuration of geo indexes. All setter methods return the
GeoConfig to allow chaining.
*/
type GeoConfig struct {
	keyFormat   string
	defaultUnit string
}

func NewGeoConfig() *GeoConfig {
	return &GeoConfig{
		keyFormat:   DEFAULT_KEY_FORMAT,
		defaultUnit: DEFAULT_UNIT,
	}
}

// Sets the format of store keys. It takes the index and the field
// name, in that order.
func (conf *GeoConfig) SetKeyFormat(format string) *GeoConfig {
	assert2(strings.Count(format, "%s") == 2, "key format needs two %%s verbs (got %q)", format)
	conf.keyFormat = format
	return conf
}

func (conf *GeoConfig) KeyFormat() string {
	return conf.keyFormat
}

// Unit assumed by ParseGeoFilter when the unit argument is omitted.
func (conf *GeoConfig) SetDefaultUnit(unit string) *GeoConfig {
	_, ok := unitFactors[unit]
	assert2(ok, "unknown unit %q", unit)
	conf.defaultUnit = unit
	return conf
}

func (conf *GeoConfig) DefaultUnit() string {
	return conf.defaultUnit
}

// The store key of a field of an index.
func (conf *GeoConfig) Key(index, field string) string {
	return fmt.Sprintf(conf.keyFormat, index, field)
}

func (conf *GeoConfig) String() string {
	return fmt.Sprintf("keyFormat=%v\ndefaultUnit=%v\n", conf.keyFormat, conf.defaultUnit)
}

func assert2(ok bool, msg string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf(msg, args...))
	}
}
