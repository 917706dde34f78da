package geo

import "math"

// Bits per coordinate; a hash interleaves both into 52 bits.
const HASH_STEP = 26

const EARTH_RADIUS_METERS = 6372797.560856

/*
Encodes a point as a 52-bit interleaved geohash. Latitude bits take the
even positions, longitude bits the odd ones. The point must be in
range, see Validate.
*/
func EncodeHash(lon, lat float64) uint64 {
	return interleave(
		quantize(lat, MIN_LAT, MAX_LAT),
		quantize(lon, MIN_LON, MAX_LON))
}

// Returns the center of the cell a hash denotes.
func DecodeHash(hash uint64) (lon, lat float64) {
	latBits, lonBits := deinterleave(hash)
	return center(lonBits, MIN_LON, MAX_LON), center(latBits, MIN_LAT, MAX_LAT)
}

func quantize(v, lo, hi float64) uint32 {
	cells := float64(uint32(1) << HASH_STEP)
	n := (v - lo) / (hi - lo) * cells
	if n >= cells {
		n = cells - 1
	}
	return uint32(n)
}

func center(n uint32, lo, hi float64) float64 {
	cell := (hi - lo) / float64(uint32(1)<<HASH_STEP)
	return lo + (float64(n)+0.5)*cell
}

func interleave(x, y uint32) (h uint64) {
	for i := 0; i < HASH_STEP; i++ {
		h |= uint64(x>>i&1) << (2 * i)
		h |= uint64(y>>i&1) << (2*i + 1)
	}
	return
}

func deinterleave(h uint64) (x, y uint32) {
	for i := 0; i < HASH_STEP; i++ {
		x |= uint32(h>>(2*i)&1) << i
		y |= uint32(h>>(2*i+1)&1) << i
	}
	return
}

// Great-circle distance in meters.
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	lat1r, lat2r := toRadians(lat1), toRadians(lat2)
	u := math.Sin((lat2r - lat1r) / 2)
	v := math.Sin(toRadians(lon2-lon1) / 2)
	a := u*u + math.Cos(lat1r)*math.Cos(lat2r)*v*v
	return 2 * EARTH_RADIUS_METERS * math.Asin(math.Sqrt(a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
