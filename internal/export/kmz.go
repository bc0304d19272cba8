package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"

	"github.com/piwi3910/pvlayout/internal/geometry"
)

// PointProjector converts a projected coordinate to longitude/latitude.
// *importer.Reprojector built from the output CRS to EPSG:4326 satisfies it.
type PointProjector interface {
	Point(p geom.Point) (geom.Point, error)
}

type kmlDoc struct {
	XMLName  xml.Name    `xml:"kml"`
	XMLNS    string      `xml:"xmlns,attr"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name    string      `xml:"name"`
	Styles  []kmlStyle  `xml:"Style"`
	Folders []kmlFolder `xml:"Folder"`
}

type kmlStyle struct {
	ID        string `xml:"id,attr"`
	LineColor string `xml:"LineStyle>color"`
	LineWidth int    `xml:"LineStyle>width"`
	PolyColor string `xml:"PolyStyle>color"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description,omitempty"`
	StyleURL    string `xml:"styleUrl"`
	Coordinates string `xml:"Polygon>outerBoundaryIs>LinearRing>coordinates"`
}

// WriteKMZ saves the winning layout as a KMZ archive holding doc.kml, with
// one polygon placemark per table footprint and per street, grouped in
// folders. Coordinates go through toWGS84 when it is not nil.
func WriteKMZ(path string, rep Report, toWGS84 PointProjector) error {
	doc, err := buildKML(rep, toWGS84)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create KMZ file: %w", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	w, err := zw.Create("doc.kml")
	if err != nil {
		return fmt.Errorf("failed to add doc.kml: %w", err)
	}
	if err := encodeKML(w, doc); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize KMZ: %w", err)
	}
	return file.Close()
}

func encodeKML(w io.Writer, doc kmlDoc) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode KML: %w", err)
	}
	return enc.Flush()
}

func buildKML(rep Report, toWGS84 PointProjector) (kmlDoc, error) {
	doc := kmlDoc{
		XMLNS: "http://www.opengis.net/kml/2.2",
		Document: kmlDocument{
			Name: projectTitle(rep),
			Styles: []kmlStyle{
				// KML colors are aabbggrr
				{ID: "table", LineColor: "ffb46414", LineWidth: 1, PolyColor: "99b46414"},
				{ID: "street", LineColor: "ff808080", LineWidth: 1, PolyColor: "66808080"},
			},
		},
	}

	tables := kmlFolder{Name: "Tables"}
	labels := CollectLabelInfos(rep)
	for i, r := range rep.footprints() {
		coords, err := rectCoordinates(r, toWGS84)
		if err != nil {
			return kmlDoc{}, fmt.Errorf("table %d: %w", i+1, err)
		}
		tables.Placemarks = append(tables.Placemarks, kmlPlacemark{
			Name:        labels[i].TableID,
			Description: fmt.Sprintf("Zone %d, %d panels", labels[i].Zone+1, labels[i].Panels),
			StyleURL:    "#table",
			Coordinates: coords,
		})
	}

	streets := kmlFolder{Name: "Streets"}
	for i, s := range rep.Result.Best.Streets {
		r := geometry.Rect{MinX: s.Left.Start.X, MinY: s.Left.Start.Y, MaxX: s.Right.End.X, MaxY: s.Right.End.Y}
		coords, err := rectCoordinates(r, toWGS84)
		if err != nil {
			return kmlDoc{}, fmt.Errorf("street %d: %w", i+1, err)
		}
		streets.Placemarks = append(streets.Placemarks, kmlPlacemark{
			Name:        fmt.Sprintf("Street %d", i+1),
			Description: fmt.Sprintf("Zone %d, %.2f m wide", s.ZoneIndex+1, s.Width),
			StyleURL:    "#street",
			Coordinates: coords,
		})
	}

	doc.Document.Folders = []kmlFolder{tables, streets}
	return doc, nil
}

// rectCoordinates renders a closed counter-clockwise ring in KML
// "lon,lat,alt" tuples.
func rectCoordinates(r geometry.Rect, toWGS84 PointProjector) (string, error) {
	ring := []geom.Point{
		{X: r.MinX, Y: r.MinY},
		{X: r.MaxX, Y: r.MinY},
		{X: r.MaxX, Y: r.MaxY},
		{X: r.MinX, Y: r.MaxY},
		{X: r.MinX, Y: r.MinY},
	}
	parts := make([]string, len(ring))
	for i, p := range ring {
		if toWGS84 != nil {
			q, err := toWGS84.Point(p)
			if err != nil {
				return "", err
			}
			p = q
		}
		parts[i] = strconv.FormatFloat(p.X, 'f', 8, 64) + "," + strconv.FormatFloat(p.Y, 'f', 8, 64) + ",0"
	}
	return strings.Join(parts, " "), nil
}
