package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/solarsim/internal/dynamo"
)

// WriteCSV writes one row per body per snapshot.
func WriteCSV(w io.Writer, snaps []dynamo.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, snap := range snaps {
		for _, b := range snap.Bodies {
			if err := cw.Write(formatRow(snap, b)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatRow(snap dynamo.Snapshot, b dynamo.BodyState) []string {
	d := b.Diagnostics
	return []string{
		strconv.Itoa(snap.Step),
		ff(snap.Time),
		strconv.FormatUint(uint64(b.ID), 10),
		b.Role.String(),
		ff(b.Mass),
		ff(b.Position.X), ff(b.Position.Y), ff(b.Position.Z),
		ff(b.Velocity.X), ff(b.Velocity.Y), ff(b.Velocity.Z),
		ff(d.AngularMomentum.X), ff(d.AngularMomentum.Y), ff(d.AngularMomentum.Z),
		ff(d.Kinetic), ff(d.Potential), ff(d.Total),
		strconv.FormatBool(d.Valid),
	}
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseRow(record []string) (int, float64, dynamo.BodyState, error) {
	var b dynamo.BodyState

	step, err := strconv.Atoi(record[0])
	if err != nil {
		return 0, 0, b, fmt.Errorf("step: %w", err)
	}
	id, err := strconv.ParseUint(record[2], 10, 32)
	if err != nil {
		return 0, 0, b, fmt.Errorf("body: %w", err)
	}
	b.ID = dynamo.BodyID(id)
	if record[3] == dynamo.Central.String() {
		b.Role = dynamo.Central
	}

	floats := make([]float64, 0, 14)
	for _, col := range []int{1, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16} {
		v, err := strconv.ParseFloat(record[col], 64)
		if err != nil {
			return 0, 0, b, fmt.Errorf("%s: %w", header[col], err)
		}
		floats = append(floats, v)
	}
	valid, err := strconv.ParseBool(record[17])
	if err != nil {
		return 0, 0, b, fmt.Errorf("valid: %w", err)
	}

	b.Mass = floats[1]
	b.Position.X, b.Position.Y, b.Position.Z = floats[2], floats[3], floats[4]
	b.Velocity.X, b.Velocity.Y, b.Velocity.Z = floats[5], floats[6], floats[7]
	b.Diagnostics.AngularMomentum.X = floats[8]
	b.Diagnostics.AngularMomentum.Y = floats[9]
	b.Diagnostics.AngularMomentum.Z = floats[10]
	b.Diagnostics.Kinetic = floats[11]
	b.Diagnostics.Potential = floats[12]
	b.Diagnostics.Total = floats[13]
	b.Diagnostics.Valid = valid
	return step, floats[0], b, nil
}
