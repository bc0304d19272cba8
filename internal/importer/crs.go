package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Defaults of the original KML workflow: WGS84 input, ETRS89 / UTM 33N output.
const (
	DefaultInputCRS  = "EPSG:4326"
	DefaultOutputCRS = "EPSG:25833"
)

const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// ResolveCRS turns an EPSG code into a proj4 definition. Supported codes are
// 4326, 3857, 258NN (ETRS89 / UTM NN), 326NN and 327NN (WGS84 / UTM NN north
// and south). Anything starting with "+" is taken as a proj4 string.
func ResolveCRS(code string) (string, error) {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "+") {
		return code, nil
	}
	upper := strings.ToUpper(code)
	num, err := strconv.Atoi(strings.TrimPrefix(upper, "EPSG:"))
	if err != nil {
		return "", fmt.Errorf("unsupported CRS %q", code)
	}

	switch {
	case num == 4326:
		return wgs84, nil
	case num == 3857:
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs", nil
	case num >= 25828 && num <= 25838:
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs", num-25800), nil
	case num >= 32601 && num <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", num-32600), nil
	case num >= 32701 && num <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", num-32700), nil
	}
	return "", fmt.Errorf("unsupported CRS %q", code)
}

// Reprojector converts geometries between two coordinate reference systems.
type Reprojector struct {
	src, dst string
	trans    proj.Transformer
	identity bool
}

// NewReprojector builds a transform from src to dst, each an EPSG code or a
// proj4 string.
func NewReprojector(src, dst string) (*Reprojector, error) {
	srcDef, err := ResolveCRS(src)
	if err != nil {
		return nil, err
	}
	dstDef, err := ResolveCRS(dst)
	if err != nil {
		return nil, err
	}
	r := &Reprojector{src: src, dst: dst}
	if srcDef == dstDef {
		r.identity = true
		return r, nil
	}

	srcSR, err := proj.Parse(srcDef)
	if err != nil {
		return nil, fmt.Errorf("parse CRS %s: %w", src, err)
	}
	dstSR, err := proj.Parse(dstDef)
	if err != nil {
		return nil, fmt.Errorf("parse CRS %s: %w", dst, err)
	}
	r.trans, err = srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("transform %s -> %s: %w", src, dst, err)
	}
	return r, nil
}

// Inverse returns the transform from dst back to src.
func (r *Reprojector) Inverse() (*Reprojector, error) {
	return NewReprojector(r.dst, r.src)
}

// Point reprojects a single coordinate.
func (r *Reprojector) Point(p geom.Point) (geom.Point, error) {
	if r == nil || r.identity {
		return p, nil
	}
	g, err := p.Transform(r.trans)
	if err != nil {
		return geom.Point{}, err
	}
	switch t := g.(type) {
	case geom.Point:
		return t, nil
	case *geom.Point:
		return *t, nil
	}
	return geom.Point{}, fmt.Errorf("unexpected geometry %T", g)
}

// Polygon reprojects every vertex of p.
func (r *Reprojector) Polygon(p geom.Polygon) (geom.Polygon, error) {
	if r == nil || r.identity {
		return p, nil
	}
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		path := make(geom.Path, len(ring))
		for j, pt := range ring {
			q, err := r.Point(pt)
			if err != nil {
				return nil, fmt.Errorf("reproject %s -> %s: %w", r.src, r.dst, err)
			}
			path[j] = q
		}
		out[i] = path
	}
	return out, nil
}
