package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Name:    "daily_stats",
		Columns: []string{"DayOfYear", "Date", "Mean", "Complete"},
		Rows: [][]any{
			{1, "Jan-01", 12.5, true},
			{2, "Jan-02", nil, false},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "MSGPACK", " csv ", "xlsx"} {
		_, err := ParseFormat(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseFormat("parquet")
	assert.Error(t, err)
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatCSV, sampleTable()))
	assert.Equal(t, "DayOfYear,Date,Mean,Complete\n1,Jan-01,12.5,true\n2,Jan-02,,false\n", buf.String())
}

func TestEncodeJSONRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, sampleTable()))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, 12.5, records[0]["Mean"])
	assert.Nil(t, records[1]["Mean"])
	assert.Contains(t, records[1], "Mean")
}

func TestEncodeMsgPack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatMsgPack, sampleTable()))

	var records []map[string]any
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Jan-02", records[1]["Date"])
}

func TestEncodeXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatXLSX, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("daily_stats")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"DayOfYear", "Date", "Mean", "Complete"}, rows[0])
	assert.Equal(t, "12.5", rows[1][2])
	assert.Equal(t, "Jan-02", rows[2][1])
}

func TestWriteTable(t *testing.T) {
	f := NewFormatter()
	envelope := func(records []map[string]any) any {
		return map[string]any{"station": "08MF005", "data": records}
	}

	t.Run("json envelope by default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stations/08MF005/daily", nil)
		require.NoError(t, f.WriteTable(rec, req, sampleTable(), envelope))

		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var body struct {
			Station string           `json:"station"`
			Data    []map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "08MF005", body.Station)
		assert.Len(t, body.Data, 2)
	})

	t.Run("csv attachment", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stations/08MF005/daily?format=csv", nil)
		require.NoError(t, f.WriteTable(rec, req, sampleTable(), envelope))

		assert.Contains(t, rec.Header().Get("Content-Disposition"), "daily_stats.csv")
		assert.Contains(t, rec.Body.String(), "DayOfYear,Date,Mean,Complete")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/stations/08MF005/daily?format=yaml", nil)
		assert.Error(t, f.WriteTable(rec, req, sampleTable(), envelope))
	})
}
