package measure

import (
	"fmt"
	"slices"

	"labelvec/internal/models"
)

// AlignMeasurements reconciles one feature table per time point against the
// labels present in the stack at that time point (the union across its
// z-levels, sorted ascending). The number of tables must equal the stack's
// time dimension. Each time point is aligned independently; the first
// failure aborts with the time point attached.
func AlignMeasurements(tables []*Table, stack *models.Stack, verbose bool) ([]*Table, error) {
	if len(tables) != stack.SizeT {
		return nil, &models.DimensionError{
			Reason: fmt.Sprintf("got %d measurement tables for %d time points", len(tables), stack.SizeT),
		}
	}
	aligned := make([]*Table, len(tables))
	for t, table := range tables {
		labels, err := timepointLabels(stack, t)
		if err != nil {
			return nil, err
		}
		aligned[t], err = table.Align(labels, verbose)
		if err != nil {
			return nil, fmt.Errorf("aligning measurements at time point %d: %w", t, err)
		}
	}
	return aligned, nil
}

// timepointLabels returns the sorted unique labels present at one time
// point across all z-levels.
func timepointLabels(stack *models.Stack, t int) ([]int32, error) {
	seen := make(map[int32]struct{})
	for z := 0; z < stack.SizeZ; z++ {
		plane, err := stack.Plane(models.PlaneIndex{T: t, Z: z})
		if err != nil {
			return nil, err
		}
		for _, label := range plane.Labels() {
			seen[label] = struct{}{}
		}
	}
	labels := make([]int32, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels, nil
}
