package report

import (
	"fmt"
	"strings"

	"github.com/dshills/shipshape/internal/assets"
	"github.com/dshills/shipshape/internal/condition"
	"github.com/dshills/shipshape/internal/findings"
	"github.com/dshills/shipshape/internal/gallery"
	"github.com/dshills/shipshape/internal/impact"
	"github.com/dshills/shipshape/internal/inspection"
	"github.com/dshills/shipshape/internal/rating"
	"github.com/dshills/shipshape/internal/reportmeta"
)

// Input is everything Paginate lays out. Findings must be the visible list.
type Input struct {
	Images   []inspection.ImageRecord
	Findings []findings.Finding
	Groups   []gallery.Group
	Counts   findings.Counts
	Rating   rating.Result
	Impact   impact.Summary
	Meta     reportmeta.Meta
	Resolve  assets.Resolver
}

// Paginate produces the ordered page list: the fixed front pages, a single
// unchunked defects gallery, location galleries in blocks of BlockSize, and
// an appendix of every image in blocks of BlockSize. Footers are filled
// once the page count is known. Unresolvable photos become placeholder
// cells.
func Paginate(in Input) []Page {
	l := layout{
		in:     in,
		images: make(map[string]bool, len(in.Images)),
		header: header(in.Meta),
	}
	for _, img := range in.Images {
		l.images[img.ID] = true
	}

	l.frontPages()
	l.defectsGallery()
	l.locationGalleries()
	l.appendix()

	total := len(l.pages)
	cells := 0
	for i := range l.pages {
		p := &l.pages[i]
		p.Number = i + 1
		p.Footer = fmt.Sprintf("Page %d of %d", p.Number, total)
		p.Header = l.header
		cells += len(p.Cells)
		p.Totals = Totals{Images: len(in.Images), Findings: len(in.Findings), Cells: cells}
	}
	return l.pages
}

type layout struct {
	in     Input
	images map[string]bool
	header string
	pages  []Page
}

func (l *layout) add(p Page) {
	if p.Kind == "" && len(p.Kinds) > 0 {
		p.Kind = p.Kinds[0]
	}
	if len(p.Kinds) == 0 {
		p.Kinds = []Kind{p.Kind}
	}
	l.pages = append(l.pages, p)
}

func (l *layout) frontPages() {
	in := l.in
	counts := in.Counts
	r := in.Rating
	l.add(Page{
		Kind:     KindCover,
		Title:    title(in.Meta),
		Subtitle: coverSubtitle(in.Meta),
		Counts:   &counts,
		Rating:   &r,
	})
	l.add(Page{Kind: KindDisclaimer, Title: "Disclaimer"})
	l.add(Page{Kind: KindDistribution, Title: "Distribution List"})
	l.add(Page{Kind: KindTerms, Title: "Terms and Abbreviations"})
	l.add(Page{Kinds: []Kind{KindReferences, KindParticulars}, Title: "References and Vessel Particulars"})
	l.add(Page{Kinds: []Kind{KindMovement, KindCrew, KindExecutiveSummary}, Title: "Movement, Crew and Executive Summary"})

	im := in.Impact
	l.add(Page{
		Kinds:    []Kind{KindOverallRating, KindFindingsImpact},
		Title:    "Overall Rating and Commercial Impact",
		Rating:   &r,
		Impact:   &im,
		Findings: impact.Top(in.Findings, ImpactTableSize),
	})
}

// defectsGallery lays every visible finding out on one flowing page.
func (l *layout) defectsGallery() {
	cells := make([]PhotoCell, 0, len(l.in.Findings))
	for _, f := range l.in.Findings {
		cells = append(cells, l.findingCell(f))
	}
	l.add(Page{
		Kind:     KindDefectsGallery,
		Title:    "Defects and Non-conformities",
		Subtitle: fmt.Sprintf("%d findings", len(cells)),
		Cells:    cells,
		Findings: l.in.Findings,
	})
}

func (l *layout) locationGalleries() {
	for _, g := range l.in.Groups {
		blocks := gallery.Chunk(g.Items, BlockSize)
		for i, block := range blocks {
			p := Page{
				Kind:  KindLocationGallery,
				Title: g.Location,
				Cells: l.imageCells(block),
			}
			if len(blocks) > 1 {
				p.PartIndex = i + 1
				p.PartCount = len(blocks)
				p.Subtitle = fmt.Sprintf("Part %d of %d", i+1, len(blocks))
			}
			l.add(p)
		}
	}
}

// appendix lays out every image, without de-duplication against the
// galleries. An empty batch still yields one page.
func (l *layout) appendix() {
	blocks := gallery.Chunk(l.in.Images, BlockSize)
	count := gallery.BlockCount(len(l.in.Images), BlockSize)
	for i := range count {
		var block []inspection.ImageRecord
		if i < len(blocks) {
			block = blocks[i]
		}
		l.add(Page{
			Kind:       KindAppendix,
			Title:      "Appendix: Photographs",
			Subtitle:   fmt.Sprintf("Block %d of %d", i+1, count),
			Cells:      l.imageCells(block),
			BlockIndex: i + 1,
			BlockCount: count,
		})
	}
}

func (l *layout) imageCells(block []inspection.ImageRecord) []PhotoCell {
	cells := make([]PhotoCell, 0, len(block))
	for _, img := range block {
		eff := img.Effective()
		c := PhotoCell{
			PhotoID: img.ID,
			Caption: Caption{
				Condition:       eff,
				ConditionLabel:  condition.Label(eff),
				SeveritySuffix:  severitySuffix(img.Severity, img.Priority),
				Location:        locationLabel(img.Location),
				Notes:           img.Comment,
				Recommendations: append([]string(nil), img.Recommendations...),
			},
		}
		l.resolve(&c)
		cells = append(cells, c)
	}
	return cells
}

func (l *layout) findingCell(f findings.Finding) PhotoCell {
	recs := f.Recommendations
	more := 0
	if len(recs) > DefectRecCap {
		more = len(recs) - DefectRecCap
		recs = recs[:DefectRecCap]
	}
	c := PhotoCell{
		PhotoID:   f.PhotoID,
		FindingID: f.ID,
		Caption: Caption{
			Condition:           f.Condition,
			ConditionLabel:      condition.Label(f.Condition),
			SeveritySuffix:      severitySuffix(f.Severity, f.Priority),
			Location:            f.Area,
			Notes:               f.Text(),
			Recommendations:     append([]string(nil), recs...),
			MoreRecommendations: more,
		},
	}
	if f.PhotoID != "" && !l.images[f.PhotoID] {
		c.Missing = true
		return c
	}
	l.resolve(&c)
	return c
}

func (l *layout) resolve(c *PhotoCell) {
	if c.PhotoID != "" && l.in.Resolve != nil {
		c.URL = l.in.Resolve(c.PhotoID)
	}
	c.Missing = c.URL == ""
}

func severitySuffix(s condition.Severity, p condition.Priority) string {
	var parts []string
	if s != condition.SeverityNone {
		parts = append(parts, string(s)+" severity")
	}
	if p != condition.PriorityNone {
		parts = append(parts, string(p)+" priority")
	}
	return strings.Join(parts, ", ")
}

func locationLabel(loc string) string {
	if loc = strings.TrimSpace(loc); loc != "" {
		return loc
	}
	return gallery.Unspecified
}

func title(m reportmeta.Meta) string {
	if name := strings.TrimSpace(m.Vessel.Name); name != "" {
		return name
	}
	return DefaultReportTitle
}

func coverSubtitle(m reportmeta.Meta) string {
	var parts []string
	for _, s := range []string{m.Inspection.Port, m.Inspection.Date} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func header(m reportmeta.Meta) string {
	h := title(m)
	if n := strings.TrimSpace(m.Inspection.ReportNumber); n != "" {
		h += " | Report " + n
	}
	return h
}
