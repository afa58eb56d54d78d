package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/catalog"
)

const testCSV = `crop,ideal_n,ideal_p,ideal_k,ideal_temp,ideal_humidity,ideal_ph,ideal_rainfall
rice,80,40,40,28,75,6.5,200
maize,78,48,20,22,65,6.2,85
chickpea,40,68,80,19,17,7.3,80
lentil,19,68,19,25,65,6.9,46
banana,100,82,50,27,80,6.0,105
coffee,101,29,30,26,59,6.8,158
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse(strings.NewReader(testCSV))
	require.NoError(t, err)
	return c
}

func TestExactMatchScoresZeroAndRanksFirst(t *testing.T) {
	c := testCatalog(t)
	known := map[catalog.Key]float64{
		catalog.KeyN:           80,
		catalog.KeyP:           40,
		catalog.KeyK:           40,
		catalog.KeyTemperature: 28,
		catalog.KeyHumidity:    75,
		catalog.KeyPH:          6.5,
		catalog.KeyRainfall:    200,
	}

	results := Rank(known, c, DefaultTopK)
	require.NotEmpty(t, results)
	assert.Equal(t, "rice", results[0].Name)
	assert.Zero(t, results[0].Score)
}

func TestPartialKnowledgeScoresOnKnownKeysOnly(t *testing.T) {
	c := testCatalog(t)
	known := map[catalog.Key]float64{catalog.KeyN: 60}

	results := Rank(known, c, DefaultTopK)
	require.Len(t, results, 5)

	for _, r := range results {
		profile, ok := c.Get(r.Name)
		require.True(t, ok)
		want := 60 - profile.N
		if want < 0 {
			want = -want
		}
		assert.InDelta(t, want, r.Score, 1e-9, "crop %s", r.Name)
	}
}

func TestZeroKnownKeysReturnsCatalogPrefix(t *testing.T) {
	c := testCatalog(t)

	results := Rank(map[catalog.Key]float64{}, c, DefaultTopK)
	require.Len(t, results, 5)

	profiles := c.Profiles()
	for i, r := range results {
		assert.Equal(t, profiles[i].Name, r.Name)
		assert.Zero(t, r.Score)
	}
}

func TestTiesPreserveCatalogOrder(t *testing.T) {
	data := `crop,ideal_n,ideal_p,ideal_k,ideal_temp,ideal_humidity,ideal_ph,ideal_rainfall
first,50,0,0,0,0,0,0
second,90,0,0,0,0,0,0
third,50,0,0,0,0,0,0
`
	c, err := catalog.Parse(strings.NewReader(data))
	require.NoError(t, err)

	// first and third tie at |60-50| = 10 and keep their catalog order.
	results := Rank(map[catalog.Key]float64{catalog.KeyN: 60}, c, DefaultTopK)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Name)
	assert.Equal(t, "third", results[1].Name)
	assert.Equal(t, "second", results[2].Name)
}

func TestRankIsIdempotent(t *testing.T) {
	c := testCatalog(t)
	known := map[catalog.Key]float64{catalog.KeyN: 60, catalog.KeyPH: 6.5}

	first := Rank(known, c, DefaultTopK)
	second := Rank(known, c, DefaultTopK)
	assert.Equal(t, first, second)
}

func TestRankRespectsTopK(t *testing.T) {
	c := testCatalog(t)
	results := Rank(map[catalog.Key]float64{catalog.KeyN: 60}, c, 2)
	assert.Len(t, results, 2)
}
