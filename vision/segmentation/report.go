package segmentation

import "image"

// RejectReason explains why a candidate component did not become a region.
type RejectReason string

// Rejection reasons, in the order the filters run.
const (
	ReasonNone           RejectReason = ""
	ReasonTooSmall       RejectReason = "too_small"
	ReasonAreaRatio      RejectReason = "area_ratio"
	ReasonRectangularity RejectReason = "rectangularity"
	ReasonBezelScore     RejectReason = "bezel_score"
	ReasonBezelEdges     RejectReason = "bezel_edges"
	ReasonRank           RejectReason = "rank"
)

// CandidateReport is one entry of the detection log.
type CandidateReport struct {
	Rect           image.Rectangle `json:"bounds"`
	PixelCount     int             `json:"pixels"`
	AreaRatio      float64         `json:"area_ratio"`
	Rectangularity float64         `json:"rectangularity"`
	BezelScore     float64         `json:"bezel_score"`
	EdgeScores     [4]float64      `json:"edge_scores"`
	Score          float64         `json:"score"`
	Accepted       bool            `json:"accepted"`
	Reason         RejectReason    `json:"reason,omitempty"`
}

// DetectionResult is the outcome of a full-frame detection.
type DetectionResult struct {
	// Regions are the accepted regions, best score first.
	Regions []DetectedRegion
	// Candidates logs every component at least MinRegionSize in both dimensions, in scan order.
	Candidates []CandidateReport
	// SkippedSmall counts components dropped for being under MinRegionSize.
	SkippedSmall int
	// Manual is set when nothing was accepted and the caller should fall back to seeded detection.
	Manual bool
}

func (cr CandidateReport) logFields() []interface{} {
	return []interface{}{
		"bounds", cr.Rect.String(),
		"pixels", cr.PixelCount,
		"area_ratio", cr.AreaRatio,
		"rectangularity", cr.Rectangularity,
		"bezel_score", cr.BezelScore,
		"edge_scores", cr.EdgeScores[:],
		"accepted", cr.Accepted,
		"reason", string(cr.Reason),
	}
}
