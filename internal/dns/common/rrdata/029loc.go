package rrdata

import (
	"fmt"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// LOC limits (RFC 1876), in degrees and meters.
const (
	maxLatDeg   = 90
	maxLonDeg   = 180
	maxMinutes  = 59
	maxSeconds  = 59.999
	minAltitude = -100000.00
	maxAltitude = 42849672.95
	maxLocSize  = 90000000.00
)

// Coordinate is one latitude or longitude in degrees, minutes, seconds and hemisphere.
// Minutes and seconds are optional; seconds require minutes.
type Coordinate struct {
	Deg    uint64
	Min    uint64
	Sec    float64
	HasMin bool
	HasSec bool
	Dir    string
}

func (c Coordinate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", c.Deg)
	if c.HasMin {
		fmt.Fprintf(&b, " %d", c.Min)
		if c.HasSec {
			fmt.Fprintf(&b, " %.3f", c.Sec)
		}
	}
	b.WriteString(" " + c.Dir)
	return b.String()
}

// LOC is a location record value. Seconds are rendered with three decimals and metric values
// without their unit suffix.
type LOC struct {
	Lat      Coordinate
	Lon      Coordinate
	Altitude float64
	// Size, horizontal and vertical precision, each optional and in that order.
	Precision []float64
}

func (r *LOC) Type() domain.RRType { return domain.RRTypeLOC }

func (r *LOC) String() string {
	out := []string{r.Lat.String(), r.Lon.String(), formatFloat(r.Altitude)}
	for _, v := range r.Precision {
		out = append(out, formatFloat(v))
	}
	return strings.Join(out, " ")
}

func (r *LOC) Parts() Parts {
	p := Parts{"altitude": formatFloat(r.Altitude)}
	r.Lat.parts("lat", p)
	r.Lon.parts("lon", p)
	for i, name := range locPrecisionParts {
		if i < len(r.Precision) {
			p[name] = formatFloat(r.Precision[i])
		}
	}
	return p
}

func (c Coordinate) parts(prefix string, p Parts) {
	p[prefix+"_deg"] = fmt.Sprint(c.Deg)
	p[prefix+"_dir"] = c.Dir
	if c.HasMin {
		p[prefix+"_min"] = fmt.Sprint(c.Min)
	}
	if c.HasSec {
		p[prefix+"_sec"] = fmt.Sprintf("%.3f", c.Sec)
	}
}

var locPrecisionParts = []string{"size", "h_precision", "v_precision"}

func parseLOC(raw string) (RData, error) {
	// raw = d1 [m1 [s1]] {N|S} d2 [m2 [s2]] {E|W} alt[m] [siz[m] [hp[m] [vp[m]]]]
	tokens := strings.Fields(raw)
	p := Parts{}
	rest, err := splitCoordinate(tokens, "lat", "NS", p)
	if err != nil {
		return nil, err
	}
	rest, err = splitCoordinate(rest, "lon", "EW", p)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, errField("altitude", "is required")
	}
	p["altitude"] = rest[0]
	rest = rest[1:]
	if len(rest) > len(locPrecisionParts) {
		return nil, errField("", "too many fields")
	}
	for i, v := range rest {
		p[locPrecisionParts[i]] = v
	}
	return newLOC(p)
}

// splitCoordinate consumes "deg [min [sec]] dir" from tokens into p.
func splitCoordinate(tokens []string, prefix, dirs string, p Parts) ([]string, error) {
	names := []string{prefix + "_deg", prefix + "_min", prefix + "_sec"}
	for i := 0; i < len(tokens); i++ {
		if isDirection(tokens[i], dirs) {
			if i == 0 {
				return nil, errField(prefix+"_deg", "is required")
			}
			p[prefix+"_dir"] = tokens[i]
			return tokens[i+1:], nil
		}
		if i >= len(names) {
			break
		}
		p[names[i]] = tokens[i]
	}
	return nil, errField(prefix+"_dir", "must be one of %s", strings.Join(strings.Split(dirs, ""), ", "))
}

func isDirection(tok, dirs string) bool {
	return len(tok) == 1 && strings.Contains(dirs, strings.ToUpper(tok))
}

func newLOC(p Parts) (RData, error) {
	lat, err := newCoordinate(p, "lat", "NS", maxLatDeg)
	if err != nil {
		return nil, err
	}
	lon, err := newCoordinate(p, "lon", "EW", maxLonDeg)
	if err != nil {
		return nil, err
	}
	alt, err := parseFloatPart("altitude", p["altitude"], "m", minAltitude, maxAltitude)
	if err != nil {
		return nil, err
	}
	r := &LOC{Lat: lat, Lon: lon, Altitude: alt}
	for i, name := range locPrecisionParts {
		s := strings.TrimSpace(p[name])
		if s == "" {
			continue
		}
		if len(r.Precision) != i {
			return nil, errField(name, "requires %s", locPrecisionParts[i-1])
		}
		v, err := parseFloatPart(name, s, "m", 0, maxLocSize)
		if err != nil {
			return nil, err
		}
		r.Precision = append(r.Precision, v)
	}
	return r, nil
}

func newCoordinate(p Parts, prefix, dirs string, maxDeg uint64) (Coordinate, error) {
	var c Coordinate
	deg, err := parseUintPart(prefix+"_deg", p[prefix+"_deg"], maxDeg)
	if err != nil {
		return c, err
	}
	c.Deg = deg
	if s := strings.TrimSpace(p[prefix+"_min"]); s != "" {
		if c.Min, err = parseUintPart(prefix+"_min", s, maxMinutes); err != nil {
			return c, err
		}
		c.HasMin = true
	}
	if s := strings.TrimSpace(p[prefix+"_sec"]); s != "" {
		if !c.HasMin {
			return c, errField(prefix+"_sec", "requires %s_min", prefix)
		}
		if c.Sec, err = parseFloatPart(prefix+"_sec", s, "", 0, maxSeconds); err != nil {
			return c, err
		}
		c.HasSec = true
	}
	if c.Deg == maxDeg && (c.Min > 0 || c.Sec > 0) {
		return c, errField(prefix+"_deg", "can be at most %d", maxDeg)
	}
	dir := strings.ToUpper(strings.TrimSpace(p[prefix+"_dir"]))
	if !isDirection(dir, dirs) {
		return c, errField(prefix+"_dir", "must be one of %s", strings.Join(strings.Split(dirs, ""), ", "))
	}
	c.Dir = dir
	return c, nil
}
