// Package export writes normalized samples as Parquet for offline analysis.
package export

import (
	"errors"
	"fmt"
	"math"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"trainingload/internal/analysis"
)

type sampleRow struct {
	TimestampMs int64   `parquet:"name=timestamp_ms, type=INT64"`
	ElapsedS    float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	HRBPM       float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	SpeedMPS    float64 `parquet:"name=speed_mps, type=DOUBLE"`
	PowerW      float64 `parquet:"name=power_w, type=DOUBLE"`
	ValidHR     bool    `parquet:"name=valid_hr, type=BOOLEAN"`
	ValidSpeed  bool    `parquet:"name=valid_speed, type=BOOLEAN"`
	ValidPower  bool    `parquet:"name=valid_power, type=BOOLEAN"`
	HRZone      int32   `parquet:"name=hr_zone, type=INT32"`
	SpeedZone   int32   `parquet:"name=speed_zone, type=INT32"`
	PowerZone   int32   `parquet:"name=power_zone, type=INT32"`
}

// SamplesParquet encodes samples in memory. Absent readings are NaN with the
// matching valid_* column false. Zone columns hold the sample's zone under
// bounds, or 0 when the metric has no boundaries or no reading.
func SamplesParquet(samples []analysis.Sample, bounds map[analysis.Metric][]analysis.ZoneBoundary) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeSamples(fw, samples, bounds); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// WriteSamplesParquet writes samples to a Parquet file at path
func WriteSamplesParquet(path string, samples []analysis.Sample, bounds map[analysis.Metric][]analysis.ZoneBoundary) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeSamples(fw, samples, bounds); err != nil {
		fw.Close()
		return err
	}
	return fw.Close()
}

func writeSamples(fw source.ParquetFile, samples []analysis.Sample, bounds map[analysis.Metric][]analysis.ZoneBoundary) error {
	pw, err := writer.NewParquetWriter(fw, new(sampleRow), 4)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	hrZones := analysis.NewZoneIndex(bounds[analysis.MetricHR])
	speedZones := analysis.NewZoneIndex(bounds[analysis.MetricSpeed])
	powerZones := analysis.NewZoneIndex(bounds[analysis.MetricPower])

	var start int64
	if len(samples) > 0 {
		start = samples[0].TimestampMs
	}

	for _, s := range samples {
		hr, okHR := s.Value(analysis.MetricHR)
		speed, okSpeed := s.Value(analysis.MetricSpeed)
		power, okPower := s.Value(analysis.MetricPower)

		row := sampleRow{
			TimestampMs: s.TimestampMs,
			ElapsedS:    float64(s.TimestampMs-start) / 1000,
			HRBPM:       valueOrNaN(hr, okHR),
			SpeedMPS:    valueOrNaN(speed, okSpeed),
			PowerW:      valueOrNaN(power, okPower),
			ValidHR:     okHR,
			ValidSpeed:  okSpeed,
			ValidPower:  okPower,
		}
		if okHR {
			row.HRZone = int32(hrZones.Zone(hr))
		}
		if okSpeed {
			row.SpeedZone = int32(speedZones.Zone(speed))
		}
		if okPower {
			row.PowerZone = int32(powerZones.Zone(power))
		}

		if err := pw.Write(row); err != nil {
			return abort(pw, fmt.Errorf("writing row: %w", err))
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finishing parquet file: %w", err)
	}
	return nil
}

// abort stops pw after a failed write, keeping both errors
func abort(pw *writer.ParquetWriter, cause error) error {
	if err := pw.WriteStop(); err != nil {
		return errors.Join(cause, fmt.Errorf("finishing parquet file: %w", err))
	}
	return cause
}

func valueOrNaN(v float64, ok bool) float64 {
	if !ok {
		return math.NaN()
	}
	return v
}
