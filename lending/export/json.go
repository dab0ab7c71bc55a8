package export

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/liblend/library-lending-go/lending"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteJSON writes the report as JSON.
func WriteJSON(w io.Writer, report lending.Report) error {
	encoder := jsonAPI.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(report)
}

// MarshalJSON returns the report as a JSON document.
func MarshalJSON(report lending.Report) ([]byte, error) {
	return jsonAPI.MarshalIndent(report, "", "  ")
}
