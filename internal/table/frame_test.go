package table_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SP500Returns/internal/table"
)

func TestOuterJoin_DisjointDates(t *testing.T) {
	f := table.NewFrame()
	assert.True(t, f.Empty())

	f.OuterJoin(table.Series{Name: "AAA", Dates: []string{"2020-01-02", "2020-01-03"}, Values: []float64{1, 2}})
	f.OuterJoin(table.Series{Name: "BBB", Dates: []string{"2020-01-06", "2020-01-01"}, Values: []float64{3, 4}})

	require.Equal(t, 4, f.Len())
	assert.Equal(t, []string{"2020-01-01", "2020-01-02", "2020-01-03", "2020-01-06"}, f.Index())
	assert.Equal(t, []string{"AAA", "BBB"}, f.Columns())

	v, ok := f.Value("2020-01-02", "AAA")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = f.Value("2020-01-02", "BBB")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))

	v, ok = f.Value("2020-01-01", "AAA")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))
}

func TestOuterJoin_OverlappingDates(t *testing.T) {
	f := table.NewFrame()
	f.OuterJoin(table.Series{Name: "AAA", Dates: []string{"2020-01-02", "2020-01-03"}, Values: []float64{1, 2}})
	f.OuterJoin(table.Series{Name: "BBB", Dates: []string{"2020-01-03", "2020-01-06"}, Values: []float64{5, 6}})
	f.OuterJoin(table.Series{Name: "CCC", Dates: []string{"2020-01-03"}, Values: []float64{7}})

	assert.Equal(t, 3, f.Len())
	row, ok := f.Row("2020-01-03")
	require.True(t, ok)
	assert.Equal(t, []float64{2, 5, 7}, row)
}

func TestOuterJoin_DuplicateColumnIsAppended(t *testing.T) {
	f := table.NewFrame()
	f.OuterJoin(table.Series{Name: "AAA", Dates: []string{"2020-01-02"}, Values: []float64{1}})
	f.OuterJoin(table.Series{Name: "AAA", Dates: []string{"2020-01-02"}, Values: []float64{9}})

	assert.Equal(t, []string{"AAA", "AAA"}, f.Columns())
	row, _ := f.Row("2020-01-02")
	assert.Equal(t, []float64{1, 9}, row)
}

func TestWriteCSV(t *testing.T) {
	f := table.NewFrame()
	f.OuterJoin(table.Series{Name: "AAPL", Dates: []string{"2020-01-01", "2020-01-02"}, Values: []float64{2, -0.25}})
	f.OuterJoin(table.Series{Name: "BRK-B", Dates: []string{"2020-01-02"}, Values: []float64{1.5}})

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	assert.Equal(t, "Date,AAPL,BRK-B\n2020-01-01,2,\n2020-01-02,-0.25,1.5\n", buf.String())
}

func TestHead(t *testing.T) {
	f := table.NewFrame()
	f.OuterJoin(table.Series{
		Name:   "X",
		Dates:  []string{"2020-01-01", "2020-01-02", "2020-01-03"},
		Values: []float64{1, 2, 3},
	})
	h := f.Head(2)
	assert.Equal(t, []string{"2020-01-01", "2020-01-02"}, h.Index())
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 3, f.Head(10).Len())
}

func TestEncodeLabels(t *testing.T) {
	data, err := table.EncodeLabels(table.Series{
		Name:   "SPYUpDown",
		Dates:  []string{"2020-01-02", "2020-01-03"},
		Values: []float64{1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "Date,SPYUpDown\n2020-01-02,1\n2020-01-03,0\n", string(data))
}
