package importer

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCRS(t *testing.T) {
	tests := []struct {
		code    string
		contain string
	}{
		{"EPSG:4326", "+proj=longlat"},
		{"epsg:3857", "+proj=merc"},
		{"EPSG:25833", "+zone=33"},
		{"EPSG:32630", "+zone=30 +datum=WGS84"},
		{"EPSG:32719", "+zone=19 +south"},
		{"+proj=utm +zone=31", "+proj=utm +zone=31"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			def, err := ResolveCRS(tt.code)
			require.NoError(t, err)
			assert.Contains(t, def, tt.contain)
		})
	}

	for _, bad := range []string{"EPSG:2154", "UTM33", ""} {
		_, err := ResolveCRS(bad)
		assert.Error(t, err, bad)
	}
}

func TestReprojector_UTMCentralMeridian(t *testing.T) {
	rep, err := NewReprojector(DefaultInputCRS, DefaultOutputCRS)
	require.NoError(t, err)

	// 15°E is the central meridian of UTM zone 33.
	p, err := rep.Point(geom.Point{X: 15, Y: 52})
	require.NoError(t, err)
	assert.InDelta(t, 500000, p.X, 0.01)
	assert.Greater(t, p.Y, 5_700_000.0)
	assert.Less(t, p.Y, 5_800_000.0)
}

func TestReprojector_RoundTrip(t *testing.T) {
	rep, err := NewReprojector("EPSG:4326", "EPSG:25833")
	require.NoError(t, err)
	inv, err := rep.Inverse()
	require.NoError(t, err)

	poly := geom.Polygon{{
		{X: 14.1, Y: 51.2}, {X: 14.2, Y: 51.2}, {X: 14.2, Y: 51.3}, {X: 14.1, Y: 51.3},
	}}
	projected, err := rep.Polygon(poly)
	require.NoError(t, err)
	back, err := inv.Polygon(projected)
	require.NoError(t, err)

	require.Len(t, back, 1)
	for i, pt := range back[0] {
		assert.InDelta(t, poly[0][i].X, pt.X, 1e-7)
		assert.InDelta(t, poly[0][i].Y, pt.Y, 1e-7)
	}
	// A 0.1° square at 51°N is roughly 7 km by 11 km.
	assert.InDelta(t, 7.7e7, projected.Area(), 0.1e7)
}

func TestReprojector_Identity(t *testing.T) {
	rep, err := NewReprojector("EPSG:25833", "epsg:25833")
	require.NoError(t, err)

	p := geom.Point{X: 412345.5, Y: 5678901.25}
	got, err := rep.Point(p)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	var none *Reprojector
	got, err = none.Point(p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
