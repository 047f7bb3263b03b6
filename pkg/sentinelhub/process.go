package sentinelhub

import "sentinelfetch/pkg/config"

// CRSWGS84 is the CRS of bounding boxes built from lat/long rows
const CRSWGS84 = "http://www.opengis.net/def/crs/EPSG/0/4326"

// TrueColorEvalscript renders B04/B03/B02 as a 3-band RGB image
const TrueColorEvalscript = `
//VERSION=3
function setup() {
  return {
    input: ["B04", "B03", "B02"],
    output: { bands: 3 }
  };
}

function evaluatePixel(sample) {
  return [sample.B04, sample.B03, sample.B02];
}
`

// ProcessRequest is the JSON body of a Process API call
type ProcessRequest struct {
	Input      Input  `json:"input"`
	Output     Output `json:"output"`
	Evalscript string `json:"evalscript"`
}

type Input struct {
	Bounds Bounds       `json:"bounds"`
	Data   []DataSource `json:"data"`
}

// Bounds holds [minX, minY, maxX, maxY] in the CRS named by Properties
type Bounds struct {
	BBox       [4]float64       `json:"bbox"`
	Properties BoundsProperties `json:"properties"`
}

type BoundsProperties struct {
	CRS string `json:"crs"`
}

type DataSource struct {
	Type       string     `json:"type"`
	DataFilter DataFilter `json:"dataFilter"`
}

type DataFilter struct {
	TimeRange TimeRange `json:"timeRange"`
}

type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Output struct {
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Responses []OutputResponse `json:"responses"`
}

type OutputResponse struct {
	Identifier string `json:"identifier"`
	Format     Format `json:"format"`
}

type Format struct {
	Type string `json:"type"`
}

// NewProcessRequest builds a PNG request for a square box of side
// 2*HalfWidthDeg centred on (lat, lon)
func NewProcessRequest(lat, lon float64, rc config.RequestConfig) *ProcessRequest {
	d := rc.HalfWidthDeg

	return &ProcessRequest{
		Input: Input{
			Bounds: Bounds{
				BBox:       [4]float64{lon - d, lat - d, lon + d, lat + d},
				Properties: BoundsProperties{CRS: CRSWGS84},
			},
			Data: []DataSource{{
				Type: rc.Collection,
				DataFilter: DataFilter{
					TimeRange: TimeRange{From: rc.TimeFrom, To: rc.TimeTo},
				},
			}},
		},
		Output: Output{
			Width:  rc.Width,
			Height: rc.Height,
			Responses: []OutputResponse{{
				Identifier: "default",
				Format:     Format{Type: "image/png"},
			}},
		},
		Evalscript: TrueColorEvalscript,
	}
}
