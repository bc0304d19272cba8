package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
  <name>Parcel</name>
  <Placemark>
    <name>enabled</name>
    <Polygon>
      <outerBoundaryIs><LinearRing><coordinates>
        0,0,0 100,0,0 100,80,0 0,80,0 0,0,0
      </coordinates></LinearRing></outerBoundaryIs>
      <innerBoundaryIs><LinearRing><coordinates>
        40,30 60,30 60,50 40,50 40,30
      </coordinates></LinearRing></innerBoundaryIs>
    </Polygon>
  </Placemark>
  <Folder>
    <name>Constraints</name>
    <Placemark>
      <name> Restricted </name>
      <MultiGeometry>
        <Polygon><outerBoundaryIs><LinearRing><coordinates>10,10 20,10 20,20 10,20</coordinates></LinearRing></outerBoundaryIs></Polygon>
        <Polygon><outerBoundaryIs><LinearRing><coordinates>70,10 80,10 80,20 70,20</coordinates></LinearRing></outerBoundaryIs></Polygon>
      </MultiGeometry>
    </Placemark>
    <Placemark>
      <name>substation</name>
      <Point><coordinates>5,5</coordinates></Point>
    </Placemark>
  </Folder>
</Document>
</kml>`

func TestParseKML(t *testing.T) {
	result := ParseKML(strings.NewReader(sampleKML), nil)

	require.Empty(t, result.Errors)
	require.NoError(t, result.Err())
	require.Len(t, result.Zones.Enabled, 1)
	require.Len(t, result.Zones.Restricted, 2)

	enabled := result.Zones.Enabled[0]
	require.Len(t, enabled, 2, "outer ring and one hole")
	assert.Len(t, enabled[0], 5)
	assert.Equal(t, 100.0, enabled[0][1].X)
	assert.Equal(t, 80.0, enabled[0][2].Y)
	assert.InDelta(t, 100*80-20*20, enabled.Area(), 1e-9)

	assert.Equal(t, 70.0, result.Zones.Restricted[1][0][0].X)
	assert.Len(t, result.Warnings, 1, "substation placemark is ignored")
}

func TestLoadKML_Reprojects(t *testing.T) {
	kml := `<kml><Document><Placemark><name>enabled</name><Polygon><outerBoundaryIs><LinearRing>
<coordinates>15,52 15.01,52 15.01,52.01 15,52.01 15,52</coordinates>
</LinearRing></outerBoundaryIs></Polygon></Placemark></Document></kml>`
	path := filepath.Join(t.TempDir(), "zones.kml")
	require.NoError(t, os.WriteFile(path, []byte(kml), 0644))

	rep, err := NewReprojector(DefaultInputCRS, DefaultOutputCRS)
	require.NoError(t, err)

	result := LoadKML(path, rep)
	require.NoError(t, result.Err())
	require.Len(t, result.Zones.Enabled, 1)

	first := result.Zones.Enabled[0][0][0]
	assert.InDelta(t, 500000, first.X, 0.01)
	// About 690 m by 1110 m.
	assert.InDelta(t, 7.6e5, result.Zones.Enabled[0].Area(), 0.3e5)
}

func TestParseKML_Errors(t *testing.T) {
	result := ParseKML(strings.NewReader("<kml><Document>"), nil)
	assert.NotEmpty(t, result.Errors)

	bad := `<kml><Placemark><name>enabled</name><Polygon><outerBoundaryIs><LinearRing>
<coordinates>0,0 a,1 1,1</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark></kml>`
	result = ParseKML(strings.NewReader(bad), nil)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid longitude")

	noZones := `<kml><Document><Placemark><name>other</name></Placemark></Document></kml>`
	result = ParseKML(strings.NewReader(noZones), nil)
	assert.Empty(t, result.Errors)
	assert.Contains(t, result.Warnings, "No enabled zones found")

	missing := LoadKML("/nonexistent/zones.kml", nil)
	assert.Error(t, missing.Err())
}

func TestParseCoordinates(t *testing.T) {
	path, err := parseCoordinates("  1.5,2.5,10\n\t3,4  ")
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, 1.5, path[0].X)
	assert.Equal(t, 4.0, path[1].Y)

	_, err = parseCoordinates("1")
	assert.Error(t, err)
}
