package responseformat

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in the format requested by the client
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// RequestedFormat returns the format named by the request's format query parameter.
// JSON is the default.
func RequestedFormat(req *http.Request) (Format, error) {
	name := req.URL.Query().Get("format")
	if name == "" {
		return FormatJSON, nil
	}
	return ParseFormat(name)
}

// WriteResponse writes data as JSON, or as MessagePack when format=msgpack is specified
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any, headers map[string]string) error {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

// WriteTable writes t in the requested format. JSON and MessagePack clients receive
// envelope with the table's records attached under "data"; tabular formats carry
// the bare table.
func (f *Formatter) WriteTable(w http.ResponseWriter, req *http.Request, t Table, envelope func(records []map[string]any) any) error {
	format, err := RequestedFormat(req)
	if err != nil {
		return err
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	switch format {
	case FormatCSV, FormatXLSX:
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.Name+format.Extension()))
		return Encode(w, format, t)
	case FormatMsgPack:
		return f.writeMsgPack(w, envelope(t.Records()))
	default:
		return f.writeJSON(w, envelope(t.Records()))
	}
}

func (f *Formatter) writeJSON(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", FormatJSON.ContentType())
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", FormatMsgPack.ContentType())
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
