package dataset

// Source column names.
const (
	ColCountry     = "country"
	ColDescription = "description"
	ColPoints      = "points"
	ColPrice       = "price"
	ColProvince    = "province"
	ColRegion      = "region_1"
	ColVariety     = "variety"
	ColWinery      = "winery"
)

// Derived column names added by the value model.
const (
	ColPointsNormalized = "points_normalized"
	ColValue            = "value"
)

// Columns lists the review columns kept after loading, in order.
var Columns = []string{ColCountry, ColDescription, ColPoints, ColPrice, ColProvince, ColRegion, ColVariety, ColWinery}

// RequiredColumns must be present in every loaded file. region_1 is optional
// and filled with nulls when absent.
var RequiredColumns = []string{ColCountry, ColDescription, ColPoints, ColPrice, ColProvince, ColVariety, ColWinery}

// CleanColumns are the columns whose null rows are dropped before a session.
var CleanColumns = []string{ColCountry, ColDescription, ColPoints, ColPrice, ColProvince, ColVariety}

// Review is a single wine review. An empty string field means null.
type Review struct {
	Country     string
	Description string
	Points      int
	Price       float64
	Province    string
	Region      string
	Variety     string
	Winery      string
}
