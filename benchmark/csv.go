package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes the estimations as a flat table with the header
// design,repetition,theta_0,...,theta_{p-1}, in the order of the
// experiments.
func (b *Benchmarking) WriteCSV(w io.Writer) error {
	p := b.config.Model.BoundsTheta().Dim()

	header := []string{"design", "repetition"}
	for i := 0; i < p; i++ {
		header = append(header, "theta_"+strconv.Itoa(i))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("benchmark: write csv: %w", err)
	}

	for _, e := range b.config.Experiments {
		est := b.Estimations(e.Name())
		if est == nil {
			continue
		}

		reps, _ := est.Dims()
		for r := 0; r < reps; r++ {
			record := []string{e.Name(), strconv.Itoa(r)}
			for _, v := range est.RawRowView(r) {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}

			if err := cw.Write(record); err != nil {
				return fmt.Errorf("benchmark: write csv: %w", err)
			}
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("benchmark: write csv: %w", err)
	}

	return nil
}

// SaveCSV writes WriteCSV to the file at path, replacing it.
func (b *Benchmarking) SaveCSV(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("benchmark: %w", cerr)
		}
	}()

	return b.WriteCSV(f)
}
