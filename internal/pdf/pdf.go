// Package pdf renders fixtures as a printable document for the venue desk.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/derekprior/padelfix/internal/models"
)

var (
	zoneHeaders   = []string{"Date", "Day", "Time", "Court", "Pair 1", "Pair 2"}
	zoneWidths    = []float64{24, 24, 16, 34, 89, 89}
	pendingWidths = []float64{30, 89, 89, 68}
)

// Renderer renders fixtures into a landscape A4 PDF.
type Renderer struct {
	compress bool
}

// NewRenderer constructs a PDF renderer.
func NewRenderer() *Renderer {
	return &Renderer{compress: true}
}

// Render writes one section per category: a table per zone followed by the
// matches that could not be placed.
func (r *Renderer) Render(fixtures []models.Fixture, title string) ([]byte, error) {
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("pdf requires at least one fixture")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title == "" {
		title = fixtures[0].Tournament.Name
	}

	for i := range fixtures {
		fx := &fixtures[i]
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(fx.Category.Name), "", 1, "C", false, 0, "")
		pdf.Ln(3)

		for _, z := range fx.Zones {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr("Zone "+z.Name), "", 1, "", false, 0, "")
			table(pdf, tr, zoneHeaders, zoneWidths, ZoneRows(fx, z.ID))
			pdf.Ln(4)
		}

		if pending := PendingRows(fx); len(pending) > 0 {
			pdf.SetFont("Arial", "B", 11)
			pdf.SetTextColor(192, 0, 0)
			pdf.CellFormat(0, 8, "Unschedulable", "", 1, "", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			table(pdf, tr, []string{"Zone", "Pair 1", "Pair 2", "Reason"}, pendingWidths, pending)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for i, value := range row {
			pdf.CellFormat(widths[i], 7, tr(value), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// ZoneRows lists a zone's matches in play order; matches without a slot
// come last with blank date columns.
func ZoneRows(fx *models.Fixture, zoneID string) [][]string {
	var rows, unplaced [][]string
	for _, m := range fx.Scheduled() {
		if m.Zone() != zoneID {
			continue
		}
		rows = append(rows, []string{
			m.StartsAt.Format("02/01/2006"),
			models.WeekdayName(m.StartsAt.Weekday()),
			m.StartsAt.Format("15:04"),
			fx.CourtName(m.Court()),
			fx.PairName(m.Pair1ID),
			fx.PairName(m.Pair2ID),
		})
	}
	for _, m := range fx.ZoneMatches(zoneID) {
		if m.State == models.MatchScheduled && m.StartsAt != nil {
			continue
		}
		unplaced = append(unplaced, []string{"", "", "", "", fx.PairName(m.Pair1ID), fx.PairName(m.Pair2ID)})
	}
	return append(rows, unplaced...)
}

// PendingRows lists the unschedulable matches with their reasons.
func PendingRows(fx *models.Fixture) [][]string {
	var rows [][]string
	for _, u := range fx.Unschedulable() {
		rows = append(rows, []string{
			fx.ZoneName(u.Match.Zone()),
			fx.PairName(u.Match.Pair1ID),
			fx.PairName(u.Match.Pair2ID),
			u.Reason,
		})
	}
	return rows
}
