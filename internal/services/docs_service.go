package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"taxibot/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders trip rosters as PDF for drivers.
type DocsService struct {
	Admin AdminService
	// FontPath points at a TTF with Cyrillic glyphs. The core Helvetica font
	// is used when empty.
	FontPath  string
	RequestID string
	Loader    func(ctx context.Context, tripID int64) (Roster, error)
	Now       func() time.Time
}

const rosterFont = "roster"

// RosterPDF returns the passenger list of a trip and a download filename.
func (s DocsService) RosterPDF(ctx context.Context, tripID int64) ([]byte, string, error) {
	r, err := s.loadRoster(ctx, tripID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "roster_pdf", fmt.Sprintf("trip_id=%d bookings=%d", tripID, len(r.Bookings)))
	return s.buildRosterPDF(r)
}

func (s DocsService) loadRoster(ctx context.Context, tripID int64) (Roster, error) {
	if s.Loader != nil {
		return s.Loader(ctx, tripID)
	}
	return s.Admin.Roster(ctx, tripID)
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s DocsService) buildRosterPDF(r Roster) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Trip %d", r.Trip.ID), true)

	family := "Helvetica"
	if strings.TrimSpace(s.FontPath) != "" {
		pdf.AddUTF8Font(rosterFont, "", s.FontPath)
		pdf.AddUTF8Font(rosterFont, "B", s.FontPath)
		family = rosterFont
	}
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Список пассажиров: поездка #%d", r.Trip.ID))
	pdf.Ln(12)

	pdf.SetFont(family, "", 12)
	lines := []string{
		fmt.Sprintf("Направление : %s", r.Trip.Direction.Label()),
		fmt.Sprintf("Дата        : %s", safe(r.Trip.Date, "-")),
		fmt.Sprintf("Занято мест : %d из %d", r.Trip.Seats(), r.Capacity),
		fmt.Sprintf("Сформировано: %s", utils.FormatDateTime(s.now())),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont(family, "B", 11)
	pdf.CellFormat(10, 8, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 8, "ID", "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 8, "Адрес", "1", 1, "", false, 0, "")

	pdf.SetFont(family, "", 11)
	for i, b := range r.Bookings {
		pdf.CellFormat(10, 8, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", b.UserID), "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 8, safe(b.Address, "-"), "1", 1, "", false, 0, "")
	}
	if len(r.Bookings) == 0 {
		pdf.CellFormat(0, 8, "-", "1", 1, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ROSTER_%d_%s.pdf", r.Trip.ID, safeFilenamePart(string(r.Trip.Direction)+"_"+r.Trip.Date))
	return buf.Bytes(), filename, nil
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
