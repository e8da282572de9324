// Package detect holds the evidence detectors: a structural text scan plus
// the classical image-analysis branches for handwritten signatures and
// official stamps.
package detect

// SignatureEvidence records every signal the signature detector computed,
// whether or not the fused verdict fired. The shape is fixed so callers and
// persisted history rows never need to guess which fields exist.
type SignatureEvidence struct {
	// KeywordHit is the textual shortcut: a signature keyword in the
	// recognized text decides on its own.
	KeywordHit bool `json:"keyword_hit"`

	TextureVariance float64 `json:"texture_variance"`
	TextureHit      bool    `json:"texture_hit"`

	UnderlineFound bool `json:"underline_found"`

	ContourCount int  `json:"contour_count"`
	ContourHit   bool `json:"contour_hit"`
}

// StampEvidence records the stamp detector's signals. Signals later in the
// chain stay zero when an earlier one already decided.
type StampEvidence struct {
	ColorPixels int  `json:"color_pixels"`
	ColorHit    bool `json:"color_hit"`

	CircleFound  bool `json:"circle_found"`
	CircleRadius int  `json:"circle_radius"`

	ContourCircularity float64 `json:"contour_circularity"`
	ContourHit         bool    `json:"contour_hit"`
}

// Marks is the pair of fused detector verdicts with their evidence.
type Marks struct {
	HasSignature      bool              `json:"has_signature"`
	SignatureEvidence SignatureEvidence `json:"signature_evidence"`
	HasStamp          bool              `json:"has_stamp"`
	StampEvidence     StampEvidence     `json:"stamp_evidence"`
}
