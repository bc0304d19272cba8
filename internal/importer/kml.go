package importer

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"

	"github.com/piwi3910/pvlayout/internal/model"
)

// Placemark names that select a zone's role. Matching ignores case and
// surrounding spaces.
const (
	EnabledPlacemark    = "enabled"
	RestrictedPlacemark = "restricted"
)

type kmlContainer struct {
	Documents  []kmlContainer `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFile struct {
	XMLName xml.Name `xml:"kml"`
	kmlContainer
}

type kmlPlacemark struct {
	Name     string       `xml:"name"`
	Polygons []kmlPolygon `xml:"Polygon"`
	Multi    []struct {
		Polygons []kmlPolygon `xml:"Polygon"`
	} `xml:"MultiGeometry"`
}

type kmlPolygon struct {
	Outer string   `xml:"outerBoundaryIs>LinearRing>coordinates"`
	Inner []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

// ZoneResult holds the zones read from an input file. Errors are fatal for
// the file; warnings describe skipped content.
type ZoneResult struct {
	Zones    model.ZoneSet
	Errors   []string
	Warnings []string
}

// Err folds the collected errors into a single error, or nil.
func (r ZoneResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("zones: %s", strings.Join(r.Errors, "; "))
}

// LoadKML reads enabled and restricted zones from a KML file and reprojects
// them with rep. A nil rep keeps the file coordinates.
func LoadKML(path string, rep *Reprojector) ZoneResult {
	f, err := os.Open(path)
	if err != nil {
		return ZoneResult{Errors: []string{fmt.Sprintf("Cannot open KML file: %v", err)}}
	}
	defer f.Close()
	return ParseKML(f, rep)
}

// ParseKML reads zones from KML content. Placemarks named "enabled" or
// "restricted" contribute their Polygon and MultiGeometry polygons, at any
// Document or Folder depth; others are ignored with a warning.
func ParseKML(r io.Reader, rep *Reprojector) ZoneResult {
	result := ZoneResult{}

	var doc kmlFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot parse KML: %v", err))
		return result
	}

	var placemarks []kmlPlacemark
	collectPlacemarks(doc.kmlContainer, &placemarks)

	for i, pm := range placemarks {
		role := strings.ToLower(strings.TrimSpace(pm.Name))
		if role != EnabledPlacemark && role != RestrictedPlacemark {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Placemark %d: ignoring '%s'", i+1, pm.Name))
			continue
		}

		polys := append([]kmlPolygon{}, pm.Polygons...)
		for _, m := range pm.Multi {
			polys = append(polys, m.Polygons...)
		}
		if len(polys) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Placemark %d (%s): no polygon geometry", i+1, role))
			continue
		}

		for _, kp := range polys {
			poly, err := kp.polygon()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Placemark %d (%s): %v", i+1, role, err))
				continue
			}
			poly, err = rep.Polygon(poly)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Placemark %d (%s): %v", i+1, role, err))
				continue
			}
			if role == EnabledPlacemark {
				result.Zones.Enabled = append(result.Zones.Enabled, poly)
			} else {
				result.Zones.Restricted = append(result.Zones.Restricted, poly)
			}
		}
	}

	if len(result.Zones.Enabled) == 0 && len(result.Errors) == 0 {
		result.Warnings = append(result.Warnings, "No enabled zones found")
	}
	return result
}

func collectPlacemarks(c kmlContainer, out *[]kmlPlacemark) {
	*out = append(*out, c.Placemarks...)
	for _, d := range c.Documents {
		collectPlacemarks(d, out)
	}
	for _, f := range c.Folders {
		collectPlacemarks(f, out)
	}
}

func (kp kmlPolygon) polygon() (geom.Polygon, error) {
	outer, err := parseCoordinates(kp.Outer)
	if err != nil {
		return nil, fmt.Errorf("outer boundary: %w", err)
	}
	if len(outer) < 3 {
		return nil, fmt.Errorf("outer boundary has %d points", len(outer))
	}
	poly := geom.Polygon{outer}
	for i, s := range kp.Inner {
		hole, err := parseCoordinates(s)
		if err != nil {
			return nil, fmt.Errorf("inner boundary %d: %w", i+1, err)
		}
		poly = append(poly, hole)
	}
	return poly, nil
}

// parseCoordinates reads a KML coordinate list: whitespace separated
// "lon,lat[,alt]" tuples.
func parseCoordinates(s string) (geom.Path, error) {
	var path geom.Path
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid coordinate '%s'", tuple)
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude '%s'", parts[0])
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude '%s'", parts[1])
		}
		path = append(path, geom.Point{X: x, Y: y})
	}
	return path, nil
}
