// Package sheet writes decoded readings to an .xlsx workbook, one row
// per cycle. The workbook is saved after every row so an interrupted
// run still leaves a usable file; a save that fails because the file
// is held open elsewhere surfaces as a sink error.
package sheet

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/thermo.report/internal/config"
	"github.com/banshee-data/thermo.report/internal/k204"
	"github.com/banshee-data/thermo.report/internal/poller"
)

// SheetName is the name of the single data sheet in the workbook.
const SheetName = "Readings"

// Writer is a poller.Sink that appends readings to an xlsx workbook.
type Writer struct {
	f       *excelize.File
	path    string
	nextRow int
}

// Filename builds the output workbook name from the configured prefix
// and a start timestamp, e.g. "k204_20260824_153000.xlsx".
func Filename(prefix string, start time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, start.Format("20060102_150405"))
}

// NewWriter creates the workbook with its header row and saves it
// immediately, so a permission problem (file open in a spreadsheet
// program) is caught before the first cycle rather than after.
func NewWriter(path string, cfg *config.Config) (*Writer, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	header := []interface{}{"Timestamp", "Elapsed", "Seconds"}
	for i := 0; i < k204.NumChannels; i++ {
		header = append(header, fmt.Sprintf("%s (%s)", k204.ChannelLabel(i), cfg.ChannelName(i)))
	}
	header = append(header, "Unit")
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for col, width := range map[string]float64{
		"A": 20, "B": 12,
		"D": 15, "E": 15, "F": 15, "G": 15,
	} {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot write %s (is it open in another program?): %w", path, err)
	}

	return &Writer{f: f, path: path, nextRow: 2}, nil
}

// Record implements poller.Sink. Over-limit channels land as the
// literal string "OL"; numeric cells keep full float precision.
func (w *Writer) Record(s poller.Sample) error {
	row := []interface{}{
		s.Timestamp.Format("2006-01-02 15:04:05"),
		poller.FormatElapsed(s.Elapsed),
		math.Round(s.Elapsed.Seconds()*10) / 10,
	}
	for _, v := range s.Reading.Channels {
		if v.OverLimit {
			row = append(row, "OL")
		} else {
			row = append(row, v.Temp)
		}
	}
	row = append(row, s.Reading.Unit.String())

	cell, err := excelize.CoordinatesToCellName(1, w.nextRow)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(SheetName, cell, &row); err != nil {
		return err
	}
	w.nextRow++

	if err := w.f.Save(); err != nil {
		return fmt.Errorf("cannot save %s (is it open in another program?): %w", w.path, err)
	}
	return nil
}

// Flush implements poller.Sink with a final save.
func (w *Writer) Flush() error {
	return w.f.Save()
}

// Close saves and releases the workbook.
func (w *Writer) Close() error {
	if err := w.f.Save(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Path returns the workbook location.
func (w *Writer) Path() string {
	return w.path
}
