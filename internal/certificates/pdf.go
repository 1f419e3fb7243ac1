package certificates

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const certificateTitle = "CERTIFICATE OF INDIGENESHIP"

// pdfContent carries everything the certificate layout needs.
type pdfContent struct {
	CertificateID string
	FullName      string
	NIN           string
	State         string
	LGA           string
	IssuedAt      time.Time
	QRBase64      string
}

// renderPDF produces the one-page A4 certificate document.
func renderPDF(content pdfContent) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 24)
	doc.CellFormat(0, 14, certificateTitle, "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, fmt.Sprintf("Certificate ID: %s", content.CertificateID), "", 1, "R", false, 0, "")
	doc.Ln(8)

	body := fmt.Sprintf(
		"This is to certify that %s (NIN: %s) is an indigene of %s State, specifically from %s Local Government Area.",
		content.FullName, content.NIN, content.State, content.LGA,
	)
	doc.SetFont("Helvetica", "", 12)
	doc.MultiCell(0, 7, body, "", "J", false)
	doc.Ln(8)

	doc.CellFormat(0, 7, fmt.Sprintf("Issued on: %s", content.IssuedAt.UTC().Format("02 January 2006")), "", 1, "L", false, 0, "")

	if content.QRBase64 != "" {
		qrBytes, err := base64.StdEncoding.DecodeString(content.QRBase64)
		if err == nil {
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			doc.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrBytes))
			pageWidth, _ := doc.GetPageSize()
			doc.ImageOptions("qr", pageWidth-20-35, doc.GetY()+8, 35, 35, false, opts, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
