package pod5

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Parquet-backed tables: one parquet file per store, one row group per
// batch. The batch is the unit of physical fetch; a row group is
// materialized into memory when requested and column access after that is
// in-memory.

// Key-value metadata recorded in signal table files.
const (
	metaKeySignalEncoding = "pod5go.signal_encoding"
	metaKeySignalCodec    = "pod5go.signal_codec"
)

// -----------------------------------------------------------------------------
// Storage records
// -----------------------------------------------------------------------------

type parquetPore struct {
	Channel  int32  `parquet:"channel"`
	Well     int32  `parquet:"well"`
	PoreType string `parquet:"pore_type"`
}

type parquetCalibration struct {
	Offset float64 `parquet:"offset"`
	Scale  float64 `parquet:"scale"`
}

type parquetEndReason struct {
	Name   string `parquet:"name"`
	Forced bool   `parquet:"forced"`
}

type parquetRunInfo struct {
	AcquisitionID    string `parquet:"acquisition_id"`
	AcquisitionStart int64  `parquet:"acquisition_start"` // unix millis
	ADCMax           int32  `parquet:"adc_max"`
	ADCMin           int32  `parquet:"adc_min"`
	ExperimentName   string `parquet:"experiment_name"`
	FlowCellID       string `parquet:"flow_cell_id"`
	ProtocolName     string `parquet:"protocol_name"`
	ProtocolRunID    string `parquet:"protocol_run_id"`
	SampleID         string `parquet:"sample_id"`
	SampleRate       int64  `parquet:"sample_rate"`
	SequencingKit    string `parquet:"sequencing_kit"`
	SystemName       string `parquet:"system_name"`
	SystemType       string `parquet:"system_type"`
}

type parquetRead struct {
	ReadID       []byte             `parquet:"read_id"`
	ReadNumber   int64              `parquet:"read_number"`
	Start        int64              `parquet:"start"`
	MedianBefore float64            `parquet:"median_before"`
	Pore         parquetPore        `parquet:"pore"`
	Calibration  parquetCalibration `parquet:"calibration"`
	EndReason    parquetEndReason   `parquet:"end_reason"`
	RunInfo      parquetRunInfo     `parquet:"run_info"`
	Signal       []int64            `parquet:"signal,list"`
}

type parquetSignal struct {
	Signal  []byte `parquet:"signal"`
	Samples int64  `parquet:"samples"`
}

// -----------------------------------------------------------------------------
// Read table
// -----------------------------------------------------------------------------

// ParquetReadTable is a metadata store backed by a parquet file.
type ParquetReadTable struct {
	file    *parquet.File
	groups  []parquet.RowGroup
	closers []io.Closer
}

// OpenParquetReadTable opens a read table over a random-access source. Any
// closers are closed with the table.
func OpenParquetReadTable(src Source, closers ...io.Closer) (*ParquetReadTable, error) {
	f, err := parquet.OpenFile(src, src.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: read table: %v", ErrFormat, err)
	}
	return &ParquetReadTable{file: f, groups: f.RowGroups(), closers: closers}, nil
}

func (t *ParquetReadTable) NumBatches() int {
	return len(t.groups)
}

func (t *ParquetReadTable) Batch(_ context.Context, i int) (ReadRecordBatch, error) {
	if i < 0 || i >= len(t.groups) {
		return nil, fmt.Errorf("%w: read batch %d of %d", ErrIndexOutOfRange, i, len(t.groups))
	}
	rows, err := readRowGroup[parquetRead](t.groups[i])
	if err != nil {
		return nil, fmt.Errorf("pod5: read batch %d: %w", i, err)
	}
	return &parquetReadBatch{rows: rows}, nil
}

func (t *ParquetReadTable) Close() error {
	return closeAll(t.closers)
}

type parquetReadBatch struct {
	rows []parquetRead
}

func (b *parquetReadBatch) NumRows() int {
	return len(b.rows)
}

func (b *parquetReadBatch) record(row int) (*parquetRead, error) {
	if row < 0 || row >= len(b.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(b.rows))
	}
	return &b.rows[row], nil
}

func (b *parquetReadBatch) ReadID(row int) ([]byte, error) {
	rec, err := b.record(row)
	if err != nil {
		return nil, err
	}
	return rec.ReadID, nil
}

func (b *parquetReadBatch) ReadNumber(row int) (uint32, error) {
	rec, err := b.record(row)
	if err != nil {
		return 0, err
	}
	return uint32(rec.ReadNumber), nil
}

func (b *parquetReadBatch) StartSample(row int) (uint64, error) {
	rec, err := b.record(row)
	if err != nil {
		return 0, err
	}
	return uint64(rec.Start), nil
}

func (b *parquetReadBatch) MedianBefore(row int) (float64, error) {
	rec, err := b.record(row)
	if err != nil {
		return 0, err
	}
	return rec.MedianBefore, nil
}

func (b *parquetReadBatch) Pore(row int) (PoreData, error) {
	rec, err := b.record(row)
	if err != nil {
		return PoreData{}, err
	}
	return PoreData{
		Channel:  uint16(rec.Pore.Channel),
		Well:     uint8(rec.Pore.Well),
		PoreType: rec.Pore.PoreType,
	}, nil
}

func (b *parquetReadBatch) Calibration(row int) (CalibrationData, error) {
	rec, err := b.record(row)
	if err != nil {
		return CalibrationData{}, err
	}
	return CalibrationData{
		Offset: rec.Calibration.Offset,
		Scale:  rec.Calibration.Scale,
	}, nil
}

func (b *parquetReadBatch) EndReason(row int) (EndReasonData, error) {
	rec, err := b.record(row)
	if err != nil {
		return EndReasonData{}, err
	}
	return EndReasonData{
		Name:   rec.EndReason.Name,
		Forced: rec.EndReason.Forced,
	}, nil
}

func (b *parquetReadBatch) RunInfo(row int) (RunInfoData, error) {
	rec, err := b.record(row)
	if err != nil {
		return RunInfoData{}, err
	}
	ri := rec.RunInfo
	return RunInfoData{
		AcquisitionID:    ri.AcquisitionID,
		AcquisitionStart: time.UnixMilli(ri.AcquisitionStart).UTC(),
		ADCMax:           int16(ri.ADCMax),
		ADCMin:           int16(ri.ADCMin),
		ExperimentName:   ri.ExperimentName,
		FlowCellID:       ri.FlowCellID,
		ProtocolName:     ri.ProtocolName,
		ProtocolRunID:    ri.ProtocolRunID,
		SampleID:         ri.SampleID,
		SampleRate:       uint32(ri.SampleRate),
		SequencingKit:    ri.SequencingKit,
		SystemName:       ri.SystemName,
		SystemType:       ri.SystemType,
	}, nil
}

func (b *parquetReadBatch) SignalRowIndices(row int) ([]uint64, error) {
	rec, err := b.record(row)
	if err != nil {
		return nil, err
	}
	indices := make([]uint64, len(rec.Signal))
	for i, idx := range rec.Signal {
		indices[i] = uint64(idx)
	}
	return indices, nil
}

// -----------------------------------------------------------------------------
// Signal table
// -----------------------------------------------------------------------------

// ParquetSignalTable is a signal store backed by a parquet file.
//
// The payload encoding and codec are carried in the file's key-value
// metadata and resolved once at open, never per row.
type ParquetSignalTable struct {
	file      *parquet.File
	groups    []parquet.RowGroup
	encoding  SignalEncoding
	codecName string
	closers   []io.Closer
}

// OpenParquetSignalTable opens a signal table over a random-access source.
// Any closers are closed with the table.
func OpenParquetSignalTable(src Source, closers ...io.Closer) (*ParquetSignalTable, error) {
	f, err := parquet.OpenFile(src, src.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: signal table: %v", ErrFormat, err)
	}

	encName, ok := f.Lookup(metaKeySignalEncoding)
	if !ok {
		return nil, fmt.Errorf("%w: signal table is missing %s metadata", ErrFormat, metaKeySignalEncoding)
	}
	var encoding SignalEncoding
	switch encName {
	case "raw":
		encoding = SignalRaw
	case "compressed":
		encoding = SignalCompressed
	default:
		return nil, fmt.Errorf("%w: unknown signal encoding %q", ErrFormat, encName)
	}

	codecName, _ := f.Lookup(metaKeySignalCodec)

	return &ParquetSignalTable{
		file:      f,
		groups:    f.RowGroups(),
		encoding:  encoding,
		codecName: codecName,
		closers:   closers,
	}, nil
}

// CodecName returns the codec identifier recorded in the file metadata,
// empty for raw tables.
func (t *ParquetSignalTable) CodecName() string {
	return t.codecName
}

func (t *ParquetSignalTable) NumBatches() int {
	return len(t.groups)
}

func (t *ParquetSignalTable) Batch(_ context.Context, i int) (SignalRecordBatch, error) {
	if i < 0 || i >= len(t.groups) {
		return nil, fmt.Errorf("%w: signal batch %d of %d", ErrIndexOutOfRange, i, len(t.groups))
	}
	rows, err := readRowGroup[parquetSignal](t.groups[i])
	if err != nil {
		return nil, fmt.Errorf("pod5: signal batch %d: %w", i, err)
	}
	return &parquetSignalBatch{encoding: t.encoding, rows: rows}, nil
}

func (t *ParquetSignalTable) Close() error {
	return closeAll(t.closers)
}

type parquetSignalBatch struct {
	encoding SignalEncoding
	rows     []parquetSignal
}

func (b *parquetSignalBatch) NumRows() int {
	return len(b.rows)
}

func (b *parquetSignalBatch) Encoding() SignalEncoding {
	return b.encoding
}

func (b *parquetSignalBatch) Payload(row int) ([]byte, error) {
	if row < 0 || row >= len(b.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(b.rows))
	}
	return b.rows[row].Signal, nil
}

func (b *parquetSignalBatch) SampleCount(row int) (uint32, error) {
	if row < 0 || row >= len(b.rows) {
		return 0, fmt.Errorf("%w: row %d of %d", ErrIndexOutOfRange, row, len(b.rows))
	}
	return uint32(b.rows[row].Samples), nil
}

// -----------------------------------------------------------------------------
// Row group materialization
// -----------------------------------------------------------------------------

// readRowGroup materializes one row group into typed records.
func readRowGroup[T any](rg parquet.RowGroup) ([]T, error) {
	n := int(rg.NumRows())
	rows := make([]T, n)

	rd := parquet.NewGenericRowGroupReader[T](rg)
	defer func() { _ = rd.Close() }()

	total := 0
	for total < n {
		c, err := rd.Read(rows[total:])
		total += c
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	if total != n {
		return nil, fmt.Errorf("row group has %d rows, read %d", n, total)
	}
	return rows, nil
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// -----------------------------------------------------------------------------
// Table writers
// -----------------------------------------------------------------------------

// WriteParquetReadTable writes batches of read metadata as a parquet file,
// one row group per batch. It exists for conversion tooling and test
// fixtures; this package otherwise only reads.
func WriteParquetReadTable(w io.Writer, batches ...[]MemReadRecord) error {
	pw := parquet.NewGenericWriter[parquetRead](w)
	for _, batch := range batches {
		rows := make([]parquetRead, len(batch))
		for i, rec := range batch {
			signal := make([]int64, len(rec.Signal))
			for j, idx := range rec.Signal {
				signal[j] = int64(idx)
			}
			rows[i] = parquetRead{
				ReadID:       rec.ReadID,
				ReadNumber:   int64(rec.ReadNumber),
				Start:        int64(rec.StartSample),
				MedianBefore: rec.MedianBefore,
				Pore: parquetPore{
					Channel:  int32(rec.Pore.Channel),
					Well:     int32(rec.Pore.Well),
					PoreType: rec.Pore.PoreType,
				},
				Calibration: parquetCalibration{
					Offset: rec.Calibration.Offset,
					Scale:  rec.Calibration.Scale,
				},
				EndReason: parquetEndReason{
					Name:   rec.EndReason.Name,
					Forced: rec.EndReason.Forced,
				},
				RunInfo: parquetRunInfo{
					AcquisitionID:    rec.RunInfo.AcquisitionID,
					AcquisitionStart: rec.RunInfo.AcquisitionStart.UnixMilli(),
					ADCMax:           int32(rec.RunInfo.ADCMax),
					ADCMin:           int32(rec.RunInfo.ADCMin),
					ExperimentName:   rec.RunInfo.ExperimentName,
					FlowCellID:       rec.RunInfo.FlowCellID,
					ProtocolName:     rec.RunInfo.ProtocolName,
					ProtocolRunID:    rec.RunInfo.ProtocolRunID,
					SampleID:         rec.RunInfo.SampleID,
					SampleRate:       int64(rec.RunInfo.SampleRate),
					SequencingKit:    rec.RunInfo.SequencingKit,
					SystemName:       rec.RunInfo.SystemName,
					SystemType:       rec.RunInfo.SystemType,
				},
				Signal: signal,
			}
		}
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("pod5: writing read rows: %w", err)
		}
		if err := pw.Flush(); err != nil {
			return fmt.Errorf("pod5: flushing read batch: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("pod5: closing read table: %w", err)
	}
	return nil
}

// WriteParquetSignalTable writes batches of signal chunks as a parquet
// file, one row group per batch, recording the encoding and codec in the
// file metadata. codecName is ignored for SignalRaw.
func WriteParquetSignalTable(w io.Writer, encoding SignalEncoding, codecName string, batches ...[]MemSignalRecord) error {
	opts := []parquet.WriterOption{
		parquet.KeyValueMetadata(metaKeySignalEncoding, encoding.String()),
	}
	if encoding == SignalCompressed {
		opts = append(opts, parquet.KeyValueMetadata(metaKeySignalCodec, codecName))
	}

	pw := parquet.NewGenericWriter[parquetSignal](w, opts...)
	for _, batch := range batches {
		rows := make([]parquetSignal, len(batch))
		for i, rec := range batch {
			rows[i] = parquetSignal{
				Signal:  rec.Payload,
				Samples: int64(rec.SampleCount),
			}
		}
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("pod5: writing signal rows: %w", err)
		}
		if err := pw.Flush(); err != nil {
			return fmt.Errorf("pod5: flushing signal batch: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("pod5: closing signal table: %w", err)
	}
	return nil
}
