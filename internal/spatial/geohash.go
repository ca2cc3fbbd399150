package spatial

// Base32 encoding for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash encodes latitude and longitude into a geohash string
// precision: number of characters in the geohash (1-12)
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}

	geohash := make([]byte, 0, precision)
	bits, bit, ch := 0, 0, 0

	for len(geohash) < precision {
		if bit%2 == 0 {
			if refine(&lonRange, lon) {
				ch |= 1 << (4 - bits)
			}
		} else {
			if refine(&latRange, lat) {
				ch |= 1 << (4 - bits)
			}
		}

		bits++
		if bits == 5 {
			geohash = append(geohash, base32[ch])
			bits, ch = 0, 0
		}
		bit++
	}

	return string(geohash)
}

// refine halves r toward v and reports whether v fell in the upper half.
func refine(r *[2]float64, v float64) bool {
	mid := (r[0] + r[1]) / 2
	if v > mid {
		r[0] = mid
		return true
	}
	r[1] = mid
	return false
}

// DecodeGeohash decodes a geohash string into the center of its cell.
// Characters outside the alphabet are skipped.
func DecodeGeohash(geohash string) (lat, lon float64) {
	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}

	isLon := true
	for i := 0; i < len(geohash); i++ {
		idx := indexOfBase32(geohash[i])
		if idx == -1 {
			continue
		}

		for mask := 16; mask > 0; mask >>= 1 {
			r := &latRange
			if isLon {
				r = &lonRange
			}
			mid := (r[0] + r[1]) / 2
			if idx&mask != 0 {
				r[0] = mid
			} else {
				r[1] = mid
			}
			isLon = !isLon
		}
	}

	return (latRange[0] + latRange[1]) / 2, (lonRange[0] + lonRange[1]) / 2
}

// indexOfBase32 finds the index of a character in the base32 alphabet
func indexOfBase32(ch byte) int {
	for i := 0; i < len(base32); i++ {
		if base32[i] == ch {
			return i
		}
	}
	return -1
}
