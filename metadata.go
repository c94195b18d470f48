package ibcao

import (
	"strings"

	"github.com/ctessum/cdf"
)

// Metadata are the attributes of a netCDF file. Global attributes are keyed
// by their name, variable attributes by variable:name.
type Metadata struct {
	Strings map[string]string
	Floats  map[string][]float64
	Ints    map[string][]int
}

// ParseMetadata returns the attributes in header.
func ParseMetadata(header *cdf.Header) *Metadata {
	metadata := &Metadata{
		Strings: make(map[string]string),
		Floats:  make(map[string][]float64),
		Ints:    make(map[string][]int),
	}
	for _, variable := range append([]string{""}, header.Variables()...) {
		for _, attribute := range header.Attributes(variable) {
			key := attribute
			if variable != "" {
				key = variable + ":" + attribute
			}
			switch value := header.GetAttribute(variable, attribute).(type) {
			case string:
				metadata.Strings[key] = strings.TrimRight(value, "\x00")
			case []float32:
				floats := make([]float64, len(value))
				for i, f := range value {
					floats[i] = float64(f)
				}
				metadata.Floats[key] = floats
			case []float64:
				metadata.Floats[key] = append([]float64(nil), value...)
			case []uint8:
				metadata.Ints[key] = ints(value)
			case []int16:
				metadata.Ints[key] = ints(value)
			case []int32:
				metadata.Ints[key] = ints(value)
			}
		}
	}
	return metadata
}

func ints[T uint8 | int16 | int32](values []T) []int {
	result := make([]int, len(values))
	for i, value := range values {
		result[i] = int(value)
	}
	return result
}
