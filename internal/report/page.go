// Package report lays the findings, rating and photo evidence out as an
// ordered list of printable pages.
package report

import (
	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/impact"
	"github.com/dshills/shipshape/internal/rating"
)

// Kind tags the content of a page.
type Kind string

const (
	KindCover            Kind = "cover"
	KindDisclaimer       Kind = "disclaimer"
	KindDistribution     Kind = "distribution"
	KindTerms            Kind = "terms"
	KindReferences       Kind = "references"
	KindParticulars      Kind = "particulars"
	KindMovement         Kind = "movement"
	KindCrew             Kind = "crew"
	KindExecutiveSummary Kind = "executiveSummary"
	KindOverallRating    Kind = "overallRating"
	KindFindingsImpact   Kind = "findingsImpact"
	KindDefectsGallery   Kind = "defectsGallery"
	KindLocationGallery  Kind = "locationGallery"
	KindAppendix         Kind = "appendix"
)

// Layout constants.
const (
	BlockSize          = 4
	DefectRecCap       = 4
	ImpactTableSize    = 8
	DefaultReportTitle = "Vessel Condition Inspection Report"
)

// Caption is the text laid out under a photo.
type Caption struct {
	Condition      condition.Condition `json:"condition"`
	ConditionLabel string              `json:"condition_label"`
	SeveritySuffix string              `json:"severity_suffix,omitempty"`
	Location       string              `json:"location"`
	Notes          string              `json:"notes,omitempty"`
	// Recommendations may be a prefix of the source list; MoreRecommendations
	// counts the lines left out.
	Recommendations     []string `json:"recommendations,omitempty"`
	MoreRecommendations int      `json:"more_recommendations,omitempty"`
}

// PhotoCell is one image with its caption. Missing cells are drawn as a
// placeholder.
type PhotoCell struct {
	PhotoID   string  `json:"photo_id,omitempty"`
	FindingID string  `json:"finding_id,omitempty"`
	URL       string  `json:"url,omitempty"`
	Caption   Caption `json:"caption"`
	Missing   bool    `json:"missing,omitempty"`
}

// Totals are the document-wide counts plus the number of photo cells laid
// out up to and including the page.
type Totals struct {
	Images   int `json:"images"`
	Findings int `json:"findings"`
	Cells    int `json:"cells"`
}

// Page is one unit of paginated output. Kinds lists every section on the
// page; Kind is the first of them.
type Page struct {
	Number   int    `json:"number"`
	Kind     Kind   `json:"kind"`
	Kinds    []Kind `json:"kinds"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Header   string `json:"header"`
	Footer   string `json:"footer"`

	Cells    []PhotoCell        `json:"cells,omitempty"`
	Findings []findings.Finding `json:"findings,omitempty"`
	Counts   *findings.Counts   `json:"counts,omitempty"`
	Rating   *rating.Result     `json:"rating,omitempty"`
	Impact   *impact.Summary    `json:"impact,omitempty"`

	PartIndex  int `json:"part_index,omitempty"`
	PartCount  int `json:"part_count,omitempty"`
	BlockIndex int `json:"block_index,omitempty"`
	BlockCount int `json:"block_count,omitempty"`

	Totals Totals `json:"totals"`

	// Broken lists asset URLs on this page that failed to load.
	Broken []string `json:"broken,omitempty"`
}

// Has reports whether the page carries section k.
func (p Page) Has(k Kind) bool {
	for _, pk := range p.Kinds {
		if pk == k {
			return true
		}
	}
	return false
}
