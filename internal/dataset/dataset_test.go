package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/winevalue-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *dataset.Dataset {
	return dataset.FromReviews([]dataset.Review{
		{Country: "France", Description: "Ripe cherry.", Points: 88, Price: 20, Province: "Bordeaux", Variety: "Merlot", Winery: "A"},
		{Country: "Italy", Description: "Bright acidity.", Points: 90, Price: 35, Province: "Tuscany", Region: "Chianti", Variety: "Sangiovese", Winery: "B"},
		{Country: "France", Description: "Oak and vanilla.", Points: 85, Price: 15, Province: "Rhône", Variety: "Syrah", Winery: "C"},
		{Country: "US", Description: "Jammy.", Points: 84, Price: 12, Province: "California", Variety: "Zinfandel", Winery: "D"},
	})
}

func TestFromReviewsRoundTrip(t *testing.T) {
	ds := sample()
	require.Equal(t, 4, ds.Len())
	r := ds.Review(1)
	assert.Equal(t, "Italy", r.Country)
	assert.Equal(t, 90, r.Points)
	assert.InDelta(t, 35.0, r.Price, 1e-9)
	assert.Equal(t, "Chianti", r.Region)
	assert.Equal(t, "", ds.Review(0).Region)
}

func TestNullsTreatBlankAsMissing(t *testing.T) {
	nulls, err := sample().Nulls(dataset.ColRegion)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true}, nulls)
}

func TestWhereInAndEq(t *testing.T) {
	ds := sample()
	fr, err := ds.WhereEq(dataset.ColCountry, "France")
	require.NoError(t, err)
	assert.Equal(t, 2, fr.Len())

	in, err := ds.WhereIn(dataset.ColCountry, []string{"Italy", "US"})
	require.NoError(t, err)
	countries, err := in.Strings(dataset.ColCountry)
	require.NoError(t, err)
	assert.Equal(t, []string{"Italy", "US"}, countries)

	none, err := ds.WhereEq(dataset.ColCountry, "Chile")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
	assert.True(t, none.Has(dataset.ColPrice))

	// Null regions never match, even against the empty string.
	blank, err := ds.WhereIn(dataset.ColRegion, []string{""})
	require.NoError(t, err)
	assert.Equal(t, 0, blank.Len())
}

func TestWhereContains(t *testing.T) {
	out, err := sample().WhereContains(dataset.ColDescription, "cherry")
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "France", out.Review(0).Country)
}

func TestWithFloatsDoesNotMutateReceiver(t *testing.T) {
	ds := sample()
	out, err := ds.WithFloats(dataset.ColValue, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.True(t, out.Has(dataset.ColValue))
	assert.False(t, ds.Has(dataset.ColValue))

	_, err = ds.WithFloats(dataset.ColValue, []float64{1})
	assert.Error(t, err)
}

func TestMissingColumn(t *testing.T) {
	_, err := sample().Floats("nope")
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}

const winemagCSV = `,country,description,designation,points,price,province,region_1,region_2,taster_name,taster_twitter_handle,title,variety,winery
0,Italy,"Aromas include tropical fruit, broom.",Vulkà Bianco,87,,Sicily & Sardinia,Etna,,Kerin O’Keefe,@kerinokeefe,Nicosia 2013,White Blend,Nicosia
1,Portugal,"This is ripe and fruity, a wine that is smooth.",Avidagos,87,15.0,Douro,,,Roger Voss,@vossroger,Quinta dos Avidagos,Portuguese Red,Quinta dos Avidagos
2,US,"Tart and snappy, the flavors of lime flesh.",,87,14.0,Oregon,Willamette Valley,Willamette Valley,Paul Gregutt,@paulgwine,Rainstorm 2013,Pinot Gris,Rainstorm
3,,"Pineapple rind, lemon pith.",Reserve,87,13.0,Michigan,Lake Michigan Shore,,Alexander Peartree,,St. Julian 2013,Riesling,St. Julian
`

func TestLoadFileCSVProjectsAndCleans(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "winemag.csv")
	require.NoError(t, os.WriteFile(p, []byte(winemagCSV), 0o644))

	raw, err := dataset.LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, 4, raw.Len())
	assert.Equal(t, dataset.Columns, raw.Names())

	clean, err := dataset.Clean(raw)
	require.NoError(t, err)
	// Row 0 has no price, row 3 has no country.
	require.Equal(t, 2, clean.Len())
	assert.Equal(t, "Portugal", clean.Review(0).Country)
	assert.Equal(t, "", clean.Review(0).Region)
	assert.Equal(t, "Willamette Valley", clean.Review(1).Region)
	assert.InDelta(t, 14.0, clean.Review(1).Price, 1e-9)
}

func TestLoadFileTSVWithoutRegion(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "reviews.tsv")
	rows := []string{
		"country\tdescription\tpoints\tprice\tprovince\tvariety\twinery",
		"Chile\tCrisp and clean.\t86\t11\tMaipo Valley\tCarmenère\tX",
	}
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(rows, "\n")), 0o644))

	ds, err := dataset.LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.True(t, ds.Has(dataset.ColRegion))
	assert.Equal(t, 86, ds.Review(0).Points)
}

func TestReadJSON(t *testing.T) {
	body := `[
 {"country":"Spain","description":"Smoky.","points":89,"price":22,"province":"Rioja","region_1":"Rioja","variety":"Tempranillo","winery":"Y","taster_name":null},
 {"country":"Spain","description":"Earthy.","points":85,"price":null,"province":"Rioja","region_1":null,"variety":"Garnacha","winery":"Z","taster_name":null}
]`
	raw, err := dataset.Read(strings.NewReader(body), "reviews.json")
	require.NoError(t, err)
	require.Equal(t, 2, raw.Len())
	clean, err := dataset.Clean(raw)
	require.NoError(t, err)
	require.Equal(t, 1, clean.Len())
	assert.Equal(t, "Tempranillo", clean.Review(0).Variety)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := dataset.LoadFile(filepath.Join(dir, "reviews.parquet"))
	assert.ErrorIs(t, err, dataset.ErrUnsupportedFormat)

	p := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(p, []byte("country,points\nFrance,88\n"), 0o644))
	_, err = dataset.LoadFile(p)
	assert.ErrorIs(t, err, dataset.ErrMissingColumn)
}
