package exportsvc

import (
	"io"
	"os"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core/report"
	"github.com/faithpod/portal/core/treasury"
)

var brandRGB = [3]int{23, 83, 81}

const (
	marginMM    = 10.0
	tableTopMM  = 40.0
	rowHeightMM = 6.0
	logoWidthMM = 32.0
	logoRatio   = 1028.0 / 300.0
)

// PDFRenderer lays reports out as A4 tables. LogoPath is optional.
type PDFRenderer struct {
	LogoPath string

	uncompressed bool
}

var _ report.Renderer = PDFRenderer{}

func (pr PDFRenderer) Render(w io.Writer, r report.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, 2*marginMM)
	pdf.SetCompression(!pr.uncompressed)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetTitle(r.Title, true)
	pdf.SetAuthor(r.Organization, true)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252

	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(len(r.PDFColumns), pageW-2*marginMM)
	logo := pr.logo()

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.SetTextColor(brandRGB[0], brandRGB[1], brandRGB[2])
			pdf.SetXY(marginMM, 15)
			pdf.CellFormat(pageW-2*marginMM, 10, tr(r.Title), "", 0, "C", false, 0, "")
			if logo != "" {
				pdf.ImageOptions(logo, 15, 10, logoWidthMM, logoWidthMM/logoRatio, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
			}
			pdf.SetY(tableTopMM)
		}
		tableHeader(pdf, r.PDFColumns, widths, tr)
	})

	pdf.SetFooterFuncLpi(func(lastPage bool) {
		pdf.SetTextColor(brandRGB[0], brandRGB[1], brandRGB[2])
		if lastPage {
			pdf.SetY(-20)
			pdf.SetFont("Helvetica", "", 8)
			pdf.CellFormat(0, 5, tr(r.Organization+" • Generated by Finance Team"), "", 1, "C", false, 0, "")
			pdf.SetFont("Helvetica", "BI", 7)
			generated := r.GeneratedAt.Format("2 January 2006") + " at " + r.GeneratedAt.Format("03:04 PM")
			pdf.CellFormat(0, 5, tr("Generated on "+generated), "", 0, "C", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetXY(pageW-40, pageH-8)
		pdf.CellFormat(30, 4, tr("Page "+strconv.Itoa(pdf.PageNo())+" of {nb}"), "", 0, "L", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range r.PDFRows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			pdf.CellFormat(widths[i], rowHeightMM, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	totalRow(pdf, r, widths, tr)

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// logo returns LogoPath when it can be read.
func (pr PDFRenderer) logo() string {
	if pr.LogoPath == "" {
		return ""
	}
	if _, err := os.Stat(pr.LogoPath); err != nil {
		return ""
	}
	return pr.LogoPath
}

func tableHeader(pdf *fpdf.Fpdf, cols []string, widths []float64, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(brandRGB[0], brandRGB[1], brandRGB[2])
	pdf.SetTextColor(255, 255, 255)
	for i, c := range cols {
		pdf.CellFormat(widths[i], rowHeightMM+1, tr(c), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
}

// totalRow puts "Total Amount: <currency>" before the amount column, the amount right aligned.
func totalRow(pdf *fpdf.Fpdf, r report.Report, widths []float64, tr func(string) string) {
	n := len(widths)
	if n < 3 {
		return
	}
	pdf.SetFont("Helvetica", "B", 8)
	for i := 0; i < n; i++ {
		var txt, align string
		switch i {
		case n - 3:
			txt, align = r.TotalLabel(), "R"
		case n - 2:
			txt, align = treasury.FormatAmount(r.Total), "R"
		default:
			align = "L"
		}
		pdf.CellFormat(widths[i], rowHeightMM, tr(txt), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

// columnWidths gives the first ("#") column a narrow slot and shares the rest evenly.
func columnWidths(n int, total float64) []float64 {
	if n == 0 {
		return nil
	}
	widths := make([]float64, n)
	if n == 1 {
		widths[0] = total
		return widths
	}
	first := 10.0
	rest := (total - first) / float64(n-1)
	widths[0] = first
	for i := 1; i < n; i++ {
		widths[i] = rest
	}
	return widths
}
