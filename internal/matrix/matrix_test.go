package matrix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(hs []Header) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Label)
	}
	return out
}

func TestBuild_TotalAndAverage(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PO1", Value: 2},
		{Row: "CO2", Column: "PO1", Value: 4},
	})

	assert.Equal(t, 6.0, m.ValueOf(RowTotal, "PO1"))
	assert.Equal(t, 3.0, m.ValueOf(RowAverage, "PO1"))
}

func TestBuild_AverageRoundsToOneDecimal(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PO1", Value: 2},
		{Row: "CO2", Column: "PO1", Value: 2},
		{Row: "CO3", Column: "PO1", Value: 3},
	})

	assert.Equal(t, 7.0, m.ValueOf(RowTotal, "PO1"))
	assert.Equal(t, 2.3, m.ValueOf(RowAverage, "PO1"))
}

func TestBuild_ColumnOrdering(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PSO1", Value: 1},
		{Row: "CO1", Column: "PO2", Value: 1},
		{Row: "CO1", Column: "PO1", Value: 1},
	})

	assert.Equal(t, []string{"PO2", "PO1", "PSO1"}, labels(m.Columns()))
}

func TestBuild_UnprefixedColumnsGoLast(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "X1"},
		{Row: "CO1", Column: "PSO2"},
		{Row: "CO1", Column: "po3"},
	})

	assert.Equal(t, []string{"po3", "PSO2", "X1"}, labels(m.Columns()))
}

func TestBuild_EmptyBaseAverageIsZero(t *testing.T) {
	m := Build([]Cell{
		{Row: RowTotal, Column: "PO1", Value: 40},
		{Row: RowAverage, Column: "PO1", Value: 13},
	})

	assert.Empty(t, m.BaseRows())
	for _, col := range []string{"PO1", "PO9"} {
		avg := m.ValueOf(RowAverage, col)
		assert.Equal(t, 0.0, avg)
		assert.False(t, math.IsNaN(avg) || math.IsInf(avg, 0))
	}
	assert.Equal(t, 0.0, m.ValueOf(RowTotal, "PO1"))

	empty := Build(nil)
	assert.Equal(t, 0.0, empty.ValueOf(RowAverage, "PO1"))
	assert.Equal(t, []string{RowTotal, RowAverage}, labels(empty.Rows()))
}

func TestBuild_IgnoresIncomingSummaryValues(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PO1", Value: 3},
		{Row: RowTotal, Column: "PO1", Value: 99, RowDescription: "Total"},
		{Row: "CO2", Column: "PO1", Value: 1},
		{Row: RowAverage, Column: "PO1", Value: 50},
	})

	assert.Equal(t, 4.0, m.ValueOf(RowTotal, "PO1"))
	assert.Equal(t, 2.0, m.ValueOf(RowAverage, "PO1"))

	rows := m.Rows()
	assert.Equal(t, []string{"CO1", "CO2", RowTotal, RowAverage}, labels(rows))
	assert.Equal(t, "Total", rows[2].Description)
	assert.True(t, rows[2].Synthetic)
}

func TestBuild_FirstOccurrenceWins(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PO1", Value: 2, RowDescription: "first", ColumnDescription: "po first"},
		{Row: "CO1", Column: "PO1", Value: 9, RowDescription: "second", ColumnDescription: "po second"},
	})

	assert.Equal(t, "first", m.Rows()[0].Description)
	assert.Equal(t, "po first", m.Columns()[0].Description)
	assert.Equal(t, 2.0, m.ValueOf("CO1", "PO1"))
	assert.Equal(t, 0.0, m.ValueOf("CO1", "PO7"))
	assert.Equal(t, 0.0, m.ValueOf("CO9", "PO1"))
}

func TestSetStrength_LiveRecomputation(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PO1", Value: 2},
		{Row: "CO2", Column: "PO1", Value: 4},
		{Row: "CO2", Column: "PSO1", Value: 1},
	})
	require.Equal(t, 6.0, m.ValueOf(RowTotal, "PO1"))

	require.NoError(t, m.SetStrength("CO1", "PO1", 10))
	assert.Equal(t, 14.0, m.ValueOf(RowTotal, "PO1"))
	assert.Equal(t, 7.0, m.ValueOf(RowAverage, "PO1"))

	require.NoError(t, m.SetStrength("CO1", "PSO1", 0))
	assert.Equal(t, 1.0, m.ValueOf(RowTotal, "PSO1"))
	assert.Equal(t, 0.5, m.ValueOf(RowAverage, "PSO1"))
}

func TestSetStrength_Errors(t *testing.T) {
	m := Build([]Cell{{Row: "CO1", Column: "PO1", Value: 2}})

	assert.ErrorIs(t, m.SetStrength(RowTotal, "PO1", 1), ErrSyntheticRow)
	assert.ErrorIs(t, m.SetStrength(RowAverage, "PO1", 1), ErrSyntheticRow)
	assert.ErrorIs(t, m.SetStrength("CO1", "PO1", -1), ErrStrengthOutOfRange)
	assert.ErrorIs(t, m.SetStrength("CO1", "PO1", MaxStrength+1), ErrStrengthOutOfRange)
	assert.ErrorIs(t, m.SetStrength("CO7", "PO1", 1), ErrUnknownRow)
	assert.ErrorIs(t, m.SetStrength("CO1", "PO7", 1), ErrUnknownColumn)
	assert.NoError(t, m.SetStrength("CO1", "PO1", MaxStrength))
	assert.Equal(t, 2.0, m.ValueOf(RowTotal, "PO1")-float64(MaxStrength)+2)
}

func TestView_RendersSummaryRows(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PSO1", Value: 1},
		{Row: "CO1", Column: "PO1", Value: 3},
		{Row: "CO2", Column: "PO1", Value: 1},
	})

	v := m.View()

	assert.Equal(t, []string{"PO1", "PSO1"}, labels(v.Columns))
	require.Len(t, v.Rows, 4)
	assert.True(t, v.Rows[0].Editable)
	assert.Equal(t, []float64{3, 1}, v.Rows[0].Values)
	assert.Equal(t, []float64{1, 0}, v.Rows[1].Values)
	assert.False(t, v.Rows[2].Editable)
	assert.Equal(t, []float64{4, 1}, v.Rows[2].Values)
	assert.Equal(t, []float64{2, 0.5}, v.Rows[3].Values)
}

func TestCells_RoundTripsThroughBuild(t *testing.T) {
	m := Build([]Cell{
		{Row: "CO1", Column: "PO1", Value: 3, RowDescription: "Understand"},
		{Row: "CO2", Column: "PSO1", Value: 2},
	})
	require.NoError(t, m.SetStrength("CO2", "PO1", 5))

	rebuilt := Build(m.Cells())

	assert.Equal(t, m.View(), rebuilt.View())
}
