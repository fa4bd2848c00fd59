package model

// Location is a fixed office site, identified to users by its postal code.
// The registry is seeded at startup and never edited through the API.
type Location struct {
	ID      int64  `json:"id"      db:"id"`
	Pincode string `json:"pincode" db:"pincode"`
	Name    string `json:"name"    db:"name"`
}

// DefaultLocations is the seed list for the location registry. IDs are fixed
// so clients can refer to them directly (e.g. {"locationId": 1}).
var DefaultLocations = []Location{
	{ID: 1, Pincode: "500001", Name: "Hyderabad Office"},
	{ID: 2, Pincode: "600001", Name: "Chennai Office"},
	{ID: 3, Pincode: "400001", Name: "Mumbai Office"},
	{ID: 4, Pincode: "110001", Name: "Delhi Office"},
	{ID: 5, Pincode: "560001", Name: "Bangalore Office"},
}
