// Package invoice renders a printable PDF for an order, with a QR code of the
// order id for the courier.
package invoice

import (
	"bytes"
	"fmt"
	"io"

	"leviro/models"

	"github.com/phpdave11/gofpdf"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// ShopName heads every invoice.
const ShopName = "Leviro"

// Render writes the invoice of o as PDF to w.
func Render(w io.Writer, o models.Order) error {
	qrPNG, err := qrcode.Encode(o.ID, qrcode.Medium, 256)
	if err != nil {
		return errors.Wrap(err, "generate QR code")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+o.ID, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, ShopName)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Invoice "+o.ID)
	pdf.Ln(6)
	pdf.Cell(0, 8, "Date: "+o.CreatedAt.Format("02 Jan 2006 15:04"))
	pdf.Ln(6)
	pdf.Cell(0, 8, "Status: "+string(o.Status))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 12, 36, 36, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Deliver to")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	for _, line := range []string{
		o.Customer.Name,
		o.Customer.Mobile,
		o.Customer.Address,
		o.Customer.Thana + ", " + o.Customer.District,
		"Payment: " + paymentLabel(o.Customer.PaymentMethod),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Size", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(90, 8, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, string(it.Size), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprint(it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, money(it.Price.StringFixed(2)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, money(it.LineTotal().StringFixed(2)), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(160, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, money(o.Total.StringFixed(2)), "1", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "write PDF")
	}
	return nil
}

// Core PDF fonts have no taka sign.
func money(amount string) string {
	return "Tk " + amount
}

func paymentLabel(method string) string {
	if method == "" || method == models.PaymentCOD {
		return "Cash on delivery"
	}
	return method
}
