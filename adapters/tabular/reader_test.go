package tabular

import (
	"bytes"
	"testing"

	"creditdash/domain/dataset"
	apperrors "creditdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const creditCSV = `age,monthly_inc,real_estate,dependents,note
20,1000,yes,0,first
30,2000,no,1,
40,3000,yes,2,third
NA,4000,no,,fourth
`

func decode(t *testing.T, name, body string) *dataset.Dataset {
	t.Helper()
	r := NewReader(DefaultCoercionConfig())
	ds, err := r.Decode(dataset.Source{Kind: dataset.SourceKindUpload, Name: name, Key: "test:" + name}, []byte(body))
	require.NoError(t, err)
	return ds
}

func TestDecode_InfersColumnTypes(t *testing.T) {
	ds := decode(t, "credit.csv", creditCSV)

	require.Equal(t, 4, ds.NumRows())
	require.Equal(t, []string{"age", "monthly_inc", "real_estate", "dependents", "note"}, ds.ColumnNames())

	tests := []struct {
		column string
		typ    dataset.ColumnType
		dtype  string
	}{
		{"age", dataset.ColumnTypeNumeric, "float64"},
		{"monthly_inc", dataset.ColumnTypeNumeric, "int64"},
		{"real_estate", dataset.ColumnTypeCategorical, "object"},
		{"dependents", dataset.ColumnTypeNumeric, "float64"},
		{"note", dataset.ColumnTypeCategorical, "object"},
	}
	for _, tt := range tests {
		col, ok := ds.Column(tt.column)
		require.True(t, ok, tt.column)
		assert.Equal(t, tt.typ, col.Type, tt.column)
		assert.Equal(t, tt.dtype, col.DType, tt.column)
	}

	age, _ := ds.Column("age")
	assert.True(t, age.Values[3].IsMissing())
	note, _ := ds.Column("note")
	assert.True(t, note.Values[1].IsMissing())
	text, ok := note.Values[2].Text()
	assert.True(t, ok)
	assert.Equal(t, "third", text)
}

func TestDecode_FloatFormattedCellsAreFloat64(t *testing.T) {
	ds := decode(t, "fmt.csv", "plain,dotted,sci,huge,signed\n1,1.0,1e3,1.7e308,+5\n2,2.0,2E3,1,-7\n")

	tests := []struct {
		column, dtype, first string
	}{
		{"plain", "int64", "1"},
		{"dotted", "float64", "1.0"},
		{"sci", "float64", "1000.0"},
		{"huge", "float64", ""},
		{"signed", "int64", "5"},
	}
	for _, tt := range tests {
		col, ok := ds.Column(tt.column)
		require.True(t, ok, tt.column)
		assert.Equal(t, tt.dtype, col.DType, tt.column)
		if tt.first != "" {
			assert.Equal(t, tt.first, col.Format(0), tt.column)
		}
	}
}

func TestDecode_BooleanAndAllMissingColumns(t *testing.T) {
	ds := decode(t, "flags.csv", "flag,empty,mixed\nTrue,,1\nFalse,NA,x\n")

	flag, _ := ds.Column("flag")
	assert.Equal(t, dataset.ColumnTypeBoolean, flag.Type)
	assert.Equal(t, "bool", flag.DType)

	empty, _ := ds.Column("empty")
	assert.Equal(t, dataset.ColumnTypeNumeric, empty.Type)
	assert.Equal(t, "float64", empty.DType)

	mixed, _ := ds.Column("mixed")
	assert.Equal(t, dataset.ColumnTypeCategorical, mixed.Type)
	v, ok := mixed.Values[0].Text()
	assert.True(t, ok, "numeric-looking cells in a text column stay text")
	assert.Equal(t, "1", v)
}

func TestDecode_HeaderNormalization(t *testing.T) {
	ds := decode(t, "dups.csv", " a ,a,,a\n1,2,3,4\n")
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, ds.ColumnNames())
}

func TestDecode_ShortRowsArePadded(t *testing.T) {
	ds := decode(t, "short.csv", "a,b,c\n1,2\n4,5,6\n")
	c, _ := ds.Column("c")
	assert.True(t, c.Values[0].IsMissing())
	assert.Equal(t, "float64", c.DType)
}

func TestDecode_HeaderOnlyIsEmptyDataset(t *testing.T) {
	ds := decode(t, "header.csv", "age,monthly_inc\n")
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, 2, ds.NumColumns())
}

func TestDecode_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty input", ""},
		{"too many fields", "a,b\n1,2,3\n"},
		{"bare quote", "a,b\n\"1,2\n3,4"},
		{"binary", "\xff\xfe\x00\x01"},
	}
	r := NewReader(DefaultCoercionConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := r.Decode(dataset.Source{Name: "bad.csv"}, []byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.Equal(t, apperrors.CodeParseError, apperrors.GetCode(err))
		})
	}
}

func TestDecode_TrailingBlankFieldsTolerated(t *testing.T) {
	ds := decode(t, "trailing.csv", "a,b\n1,2,\n")
	assert.Equal(t, 1, ds.NumRows())
}

func TestDecode_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"age", "real_estate"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{35, "yes"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{52, "no"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	ds := decode(t, "credit.xlsx", buf.String())
	require.Equal(t, 2, ds.NumRows())
	age, _ := ds.Column("age")
	assert.Equal(t, dataset.ColumnTypeNumeric, age.Type)
	v, _ := age.Values[1].Float()
	assert.Equal(t, 52.0, v)
}

func TestDecode_JSONRecords(t *testing.T) {
	body := `{"data": [
		{"age": 20, "real_estate": "yes", "owner": true},
		{"age": null, "real_estate": "no", "owner": false, "extra": 1.5},
		{"real_estate": "yes", "age": 40}
	]}`
	ds := decode(t, "credit.json", body)
	require.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"age", "real_estate", "owner", "extra"}, ds.ColumnNames())

	age, _ := ds.Column("age")
	assert.Equal(t, dataset.ColumnTypeNumeric, age.Type)
	assert.True(t, age.Values[1].IsMissing())

	owner, _ := ds.Column("owner")
	assert.Equal(t, dataset.ColumnTypeBoolean, owner.Type)
	assert.True(t, owner.Values[2].IsMissing())

	root := decode(t, "rows.json", `[{"x": "a"}, {"x": "b"}]`)
	assert.Equal(t, 2, root.NumRows())
}

func TestDecode_JSONErrors(t *testing.T) {
	r := NewReader(DefaultCoercionConfig())
	for _, body := range []string{`{"data": [1, 2]}`, `{"nothing": true}`, `[{"a": 1}`, `[]`} {
		_, err := r.Decode(dataset.Source{Name: "bad.json", Key: "bad"}, []byte(body))
		require.Error(t, err, body)
		assert.Equal(t, apperrors.CodeParseError, apperrors.GetCode(err), body)
	}
}
