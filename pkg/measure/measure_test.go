package measure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelvec/internal/models"
)

func mustTable(t *testing.T, columns []string, rows map[int32][]float64, order []int32) *Table {
	t.Helper()
	table, err := NewTable(columns)
	require.NoError(t, err)
	for _, label := range order {
		require.NoError(t, table.AppendRow(label, rows[label]))
	}
	return table
}

func TestNewTableValidation(t *testing.T) {
	t.Run("ValidNames", func(t *testing.T) {
		table, err := NewTable([]string{"area", "mean_intensity", "Feature-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"area", "mean_intensity", "Feature-1"}, table.Columns())
	})

	t.Run("InvalidCharacters", func(t *testing.T) {
		_, err := NewTable([]string{"area", "mean intensity"})
		require.Error(t, err)
		var invalidErr *InvalidColumnNameError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, "mean intensity", invalidErr.Name)
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := NewTable([]string{"area", "area"})
		require.Error(t, err)
		var dupErr *DuplicateColumnNameError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "area", dupErr.Name)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := NewTable([]string{""})
		var invalidErr *InvalidColumnNameError
		assert.ErrorAs(t, err, &invalidErr)
	})
}

func TestAppendRowLength(t *testing.T) {
	table, err := NewTable([]string{"area", "perimeter"})
	require.NoError(t, err)
	assert.Error(t, table.AppendRow(1, []float64{3.5}))
	assert.NoError(t, table.AppendRow(1, []float64{3.5, 8.0}))
}

func TestAlign(t *testing.T) {
	t.Run("ExactMatch", func(t *testing.T) {
		table := mustTable(t, []string{"area"},
			map[int32][]float64{1: {10}, 2: {20}, 3: {30}}, []int32{1, 2, 3})

		aligned, err := table.Align([]int32{1, 2, 3}, false)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2, 3}, aligned.Labels())
		v, err := aligned.Value(2, "area")
		require.NoError(t, err)
		assert.Equal(t, 20.0, v)
	})

	t.Run("DuplicatesAndMissing", func(t *testing.T) {
		// Rows for labels 1, 1, 2 against plane labels 1, 2, 3: the second
		// row for label 1 is dropped, label 3 gets NaN values.
		table, err := NewTable([]string{"area"})
		require.NoError(t, err)
		require.NoError(t, table.AppendRow(1, []float64{10}))
		require.NoError(t, table.AppendRow(1, []float64{99}))
		require.NoError(t, table.AppendRow(2, []float64{20}))

		aligned, err := table.Align([]int32{1, 2, 3}, false)
		require.NoError(t, err)
		require.Equal(t, []int32{1, 2, 3}, aligned.Labels())

		v, err := aligned.Value(1, "area")
		require.NoError(t, err)
		assert.Equal(t, 10.0, v, "first occurrence of the duplicate must win")

		v, err = aligned.Value(3, "area")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(v), "missing object must be filled with NaN")
	})

	t.Run("UnknownDropped", func(t *testing.T) {
		table := mustTable(t, []string{"area"},
			map[int32][]float64{1: {10}, 2: {20}, 9: {90}}, []int32{1, 2, 9})

		aligned, err := table.Align([]int32{1, 2}, false)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2}, aligned.Labels())
	})

	t.Run("MissingResorted", func(t *testing.T) {
		// The NaN fill appends at the end; the result must still come back
		// in ascending label order.
		table := mustTable(t, []string{"area"},
			map[int32][]float64{1: {10}, 3: {30}}, []int32{1, 3})

		aligned, err := table.Align([]int32{1, 2, 3}, false)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2, 3}, aligned.Labels())
	})

	t.Run("UnsortedMismatch", func(t *testing.T) {
		// A complete but out-of-order table triggers no recovery rule and
		// must be rejected rather than silently reordered.
		table := mustTable(t, []string{"area"},
			map[int32][]float64{1: {10}, 2: {20}}, []int32{2, 1})

		_, err := table.Align([]int32{1, 2}, false)
		require.Error(t, err)
		var mismatchErr *LabelMismatchError
		require.ErrorAs(t, err, &mismatchErr)
		assert.Equal(t, []int32{2, 1}, mismatchErr.Got)
		assert.Equal(t, []int32{1, 2}, mismatchErr.Want)
	})

	t.Run("InputUnchanged", func(t *testing.T) {
		table, err := NewTable([]string{"area"})
		require.NoError(t, err)
		require.NoError(t, table.AppendRow(1, []float64{10}))
		require.NoError(t, table.AppendRow(1, []float64{99}))

		_, err = table.Align([]int32{1}, false)
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 1}, table.Labels(), "Align must not mutate the input table")
	})
}

func TestAlignMeasurements(t *testing.T) {
	stack, err := models.NewStack(3, 3, 1, 2)
	require.NoError(t, err)
	plane0, err := stack.Plane(models.PlaneIndex{T: 0, Z: 0})
	require.NoError(t, err)
	plane0.Set(0, 0, 1)
	plane0.Set(2, 2, 2)
	plane1, err := stack.Plane(models.PlaneIndex{T: 1, Z: 0})
	require.NoError(t, err)
	plane1.Set(1, 1, 5)
	plane1.Set(0, 2, 7)

	t.Run("TableCountMismatch", func(t *testing.T) {
		table, err := NewTable([]string{"area"})
		require.NoError(t, err)
		_, err = AlignMeasurements([]*Table{table}, stack, false)
		require.Error(t, err)
		var dimErr *models.DimensionError
		assert.ErrorAs(t, err, &dimErr)
	})

	t.Run("PerTimepoint", func(t *testing.T) {
		table0 := mustTable(t, []string{"area"},
			map[int32][]float64{1: {10}}, []int32{1})
		table1 := mustTable(t, []string{"area"},
			map[int32][]float64{5: {50}, 7: {70}}, []int32{5, 7})

		aligned, err := AlignMeasurements([]*Table{table0, table1}, stack, false)
		require.NoError(t, err)
		require.Len(t, aligned, 2)
		assert.Equal(t, []int32{1, 2}, aligned[0].Labels(), "missing label 2 filled in at t=0")
		assert.Equal(t, []int32{5, 7}, aligned[1].Labels())
	})

	t.Run("ErrorNamesTimepoint", func(t *testing.T) {
		table0 := mustTable(t, []string{"area"},
			map[int32][]float64{1: {10}, 2: {20}}, []int32{1, 2})
		table1 := mustTable(t, []string{"area"},
			map[int32][]float64{5: {50}, 7: {70}}, []int32{7, 5})

		_, err := AlignMeasurements([]*Table{table0, table1}, stack, false)
		require.Error(t, err)
		var mismatchErr *LabelMismatchError
		require.ErrorAs(t, err, &mismatchErr)
		assert.Contains(t, err.Error(), "time point 1")
	})
}
