package export

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	LayerZones      = "ZONES"
	LayerRestricted = "RESTRICTED"
	LayerTables     = "TABLES"
	LayerStreets    = "STREETS"
)

// WriteDXF saves the zones and the winning layout as a DXF drawing in the
// projected CRS. Zone rings and table footprints are closed LWPOLYLINEs;
// each street is drawn as its two boundary LINEs.
func WriteDXF(path string, rep Report) error {
	d := dxf.NewDrawing()

	layers := []struct {
		name string
		cl   color.ColorNumber
	}{
		{LayerZones, color.Green},
		{LayerRestricted, color.Red},
		{LayerTables, color.Blue},
		{LayerStreets, color.ColorNumber(8)}, // grey
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	if err := d.ChangeLayer(LayerZones); err != nil {
		return err
	}
	for i, p := range rep.Zones.Enabled {
		if err := drawPolygonDXF(d, p); err != nil {
			return fmt.Errorf("enabled zone %d: %w", i+1, err)
		}
	}

	if err := d.ChangeLayer(LayerRestricted); err != nil {
		return err
	}
	for i, p := range rep.Zones.Restricted {
		if err := drawPolygonDXF(d, p); err != nil {
			return fmt.Errorf("restricted zone %d: %w", i+1, err)
		}
	}

	if err := d.ChangeLayer(LayerTables); err != nil {
		return err
	}
	for i, r := range rep.footprints() {
		_, err := d.LwPolyline(true,
			[]float64{r.MinX, r.MinY},
			[]float64{r.MaxX, r.MinY},
			[]float64{r.MaxX, r.MaxY},
			[]float64{r.MinX, r.MaxY},
		)
		if err != nil {
			return fmt.Errorf("table %d: %w", i+1, err)
		}
	}

	if err := d.ChangeLayer(LayerStreets); err != nil {
		return err
	}
	for i, s := range rep.Result.Best.Streets {
		for _, seg := range [...]struct{ x0, y0, x1, y1 float64 }{
			{s.Left.Start.X, s.Left.Start.Y, s.Left.End.X, s.Left.End.Y},
			{s.Right.Start.X, s.Right.Start.Y, s.Right.End.X, s.Right.End.Y},
		} {
			if _, err := d.Line(seg.x0, seg.y0, 0, seg.x1, seg.y1, 0); err != nil {
				return fmt.Errorf("street %d: %w", i+1, err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}

// drawPolygonDXF writes every ring of p as a closed LWPOLYLINE on the
// current layer.
func drawPolygonDXF(d *drawing.Drawing, p geom.Polygon) error {
	for _, ring := range p {
		n := len(ring)
		if n > 1 && ring[0] == ring[n-1] {
			n--
		}
		if n < 3 {
			continue
		}
		vertices := make([][]float64, n)
		for i := 0; i < n; i++ {
			vertices[i] = []float64{ring[i].X, ring[i].Y}
		}
		if _, err := d.LwPolyline(true, vertices...); err != nil {
			return err
		}
	}
	return nil
}
