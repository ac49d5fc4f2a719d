// Package certpdf renders certificates as landscape A4 PDFs and bundles them
// into ZIP archives.
package certpdf

import (
	"bytes"
	"io"
	"strconv"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	pageW = 297.0
	pageH = 210.0

	// background is resampled to A4 landscape at 150 dpi
	bgPixelsW = 1754
	bgPixelsH = 1240
)

type Renderer struct {
	issuer     string
	background []byte
}

// NewRenderer loads the optional template image at templatePath. An empty path
// renders certificates on a plain bordered page.
func NewRenderer(issuer, templatePath string) (*Renderer, error) {
	r := &Renderer{issuer: issuer}
	if templatePath == "" {
		return r, nil
	}

	img, err := imaging.Open(templatePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "open certificate template %s", templatePath)
	}
	img = imaging.Fill(img, bgPixelsW, bgPixelsH, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode certificate template")
	}
	r.background = buf.Bytes()
	return r, nil
}

// Render writes cert as a single-page PDF to w.
func (r *Renderer) Render(w io.Writer, cert models.Certificate) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate "+cert.ID, true)
	pdf.SetAuthor(r.issuer, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if r.background != nil {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("background", opts, bytes.NewReader(r.background))
		pdf.ImageOptions("background", 0, 0, pageW, pageH, false, opts, 0, "")
	} else {
		pdf.SetDrawColor(40, 70, 120)
		pdf.SetLineWidth(2)
		pdf.Rect(10, 10, pageW-20, pageH-20, "D")
		pdf.SetLineWidth(0.5)
		pdf.Rect(14, 14, pageW-28, pageH-28, "D")
	}

	pdf.SetTextColor(40, 70, 120)
	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetXY(0, 38)
	pdf.CellFormat(pageW, 16, tr("Certificate of Completion"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 15)
	pdf.SetXY(0, 66)
	pdf.CellFormat(pageW, 10, tr("This is to certify that"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Times", "BI", 30)
	pdf.SetXY(0, 80)
	pdf.CellFormat(pageW, 16, tr(cert.StudentName), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 15)
	pdf.SetXY(0, 102)
	pdf.CellFormat(pageW, 10, tr("has successfully completed the course"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(0, 114)
	pdf.CellFormat(pageW, 12, tr(cert.CourseTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(0, 132)
	pdf.CellFormat(pageW, 9, tr("with marks of "+strconv.FormatFloat(cert.Marks, 'f', -1, 64)), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(30, 170)
	pdf.CellFormat(110, 7, tr("Issued on "+cert.IssueDate.Format("2 January 2006")), "", 0, "L", false, 0, "")
	pdf.SetXY(pageW-140, 170)
	pdf.CellFormat(110, 7, tr("Certificate ID: "+cert.ID), "", 0, "R", false, 0, "")
	pdf.SetXY(0, 180)
	pdf.CellFormat(pageW, 7, tr(r.issuer), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return errors.Wrapf(err, "render certificate %s", cert.ID)
	}
	return nil
}

func (r *Renderer) RenderPDF(cert models.Certificate) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, cert); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
