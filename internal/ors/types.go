package ors

// GeocodeResponse is the subset of a Pelias search FeatureCollection we read.
type GeocodeResponse struct {
	Features []GeocodeFeature `json:"features"`
}

type GeocodeFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Label string `json:"label"`
	} `json:"properties"`
}

// DirectionsResponse is the GeoJSON answer of /v2/directions/{profile}/geojson.
type DirectionsResponse struct {
	Features []RouteFeature `json:"features"`
}

type RouteFeature struct {
	Geometry struct {
		// [lon, lat] or [lon, lat, elevation]
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Segments []Segment `json:"segments"`
	} `json:"properties"`
}

type Segment struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []Step  `json:"steps"`
}

type Step struct {
	Instruction *string `json:"instruction"`
	Name        string  `json:"name,omitempty"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        int     `json:"type"`
	WayPoints   []int   `json:"way_points"`
}

type directionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"`
	Instructions bool         `json:"instructions"`
}

type errorBody struct {
	Error any `json:"error"`
}
