package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/paintify/backend-paintify/internal/shop"
)

// utf8BOM precedes the export so spreadsheet tools decode it correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportFilename encodes the export date into the download name.
func ExportFilename(at time.Time) string {
	return fmt.Sprintf("Paintify_Archive_%s.csv", at.UTC().Format("2006-01-02"))
}

// WriteCSV serialises the sales ledger into the archival CSV layout. Fields
// containing the delimiter, quotes, or newlines are quoted with doubled
// internal quotes per RFC 4180.
func WriteCSV(w io.Writer, sales []shop.Sale) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Product", "Quantity", "Liters", "Rate", "Total Amount"}); err != nil {
		return err
	}
	for _, sale := range sales {
		record := []string{
			sale.Date.UTC().Format("2006-01-02"),
			sale.ProductName,
			strconv.FormatInt(sale.QuantitySold, 10),
			formatFloat(sale.TotalLiters),
			formatFloat(sale.RatePerCan),
			formatFloat(sale.TotalAmount),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
