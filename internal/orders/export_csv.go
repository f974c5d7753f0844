package orders

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
	csvPageSize   = 500
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

// Flush drains both the csv writer and the buffered writer.
func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

var exportHeader = []string{"Number", "Customer", "Email", "Status", "Status Label", "Currency", "Total", "Items", "Created At"}

// ExportCSV streams the filtered order list as CSV, paging through the
// repository so exports of any size stay bounded in memory.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, req ListOrdersRequest) error {
	streamer := newCSVStreamer(w)
	printer := message.NewPrinter(language.English)

	if err := streamer.writeRow(exportHeader); err != nil {
		return err
	}

	req.Page = 1
	req.PerPage = csvPageSize
	for {
		views, pagination, err := s.List(ctx, req)
		if err != nil {
			return fmt.Errorf("export orders: %w", err)
		}
		for _, v := range views {
			row := []string{
				v.Number,
				v.CustomerName,
				v.CustomerEmail,
				v.CanonicalStatus,
				v.StatusLabel,
				v.Currency,
				printer.Sprintf("%.2f", v.TotalAmount),
				strconv.Itoa(v.ItemCount),
				v.CreatedAt.Format(time.RFC3339),
			}
			if err := streamer.writeRow(row); err != nil {
				return err
			}
		}
		if req.Page >= pagination.TotalPages {
			break
		}
		req.Page++
	}
	return streamer.Flush()
}
