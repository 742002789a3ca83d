package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdplab/amazon-pdp-scraper/internal/models"
)

// CSVWriter streams long-format rows to an io.Writer, emitting the header on
// the first write.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) WriteRecord(rec *models.ProductRecord) error {
	if !c.wroteHeader {
		if err := c.w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		c.wroteHeader = true
	}
	for _, row := range Rows(rec) {
		if err := c.w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
