package utils

// Lead search constants
const (
	// MaxLeadsPerSearch is the hard ceiling on leads returned by one search,
	// applied server-side regardless of the requested count
	MaxLeadsPerSearch = 25

	// DefaultLeadCount is used when the caller omits the limit parameter or
	// sends one that cannot be parsed
	DefaultLeadCount = 10

	// SearchRadiusMeters is the fixed radius around the geocoded location
	// used for the text search (30 km)
	SearchRadiusMeters = 30000
)
