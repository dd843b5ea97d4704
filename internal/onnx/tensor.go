package onnx

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Int64Values extracts integer tensor content from whichever encoding the
// producer used: the typed repeated fields or little-endian raw data.
func Int64Values(t *TensorProto) ([]int64, error) {
	if dt := t.DataType; dt != TensorInt64 && dt != TensorInt32 {
		return nil, fmt.Errorf("tensor %q is not INT64 or INT32 (data type %d)", t.Name, dt)
	}
	if len(t.Int64Data) > 0 {
		return t.Int64Data, nil
	}
	if len(t.Int32Data) > 0 {
		out := make([]int64, len(t.Int32Data))
		for i, v := range t.Int32Data {
			out[i] = int64(v)
		}
		return out, nil
	}
	raw := t.RawData
	if len(raw) == 0 {
		return []int64{}, nil
	}
	if t.DataType == TensorInt64 {
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("raw_data length %d is not a multiple of 8 for INT64", len(raw))
		}
		out := make([]int64, len(raw)/8)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(raw[i*8 : (i+1)*8]))
		}
		return out, nil
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("raw_data length %d is not a multiple of 4 for INT32", len(raw))
	}
	out := make([]int64, len(raw)/4)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint32(raw[i*4 : (i+1)*4]))
	}
	return out, nil
}

// resolveExternalData loads a tensor's payload from its external-data file
// into RawData. Offsets and lengths are optional; the location resolves
// relative to the model file's directory.
func resolveExternalData(t *TensorProto, modelPath string) error {
	if len(t.ExternalData) == 0 {
		return nil
	}

	var location string
	var offset, length int64
	for _, entry := range t.ExternalData {
		switch entry.Key {
		case "location":
			location = entry.Value
		case "offset":
			if entry.Value != "" {
				v, err := strconv.ParseInt(entry.Value, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid offset value: %s", entry.Value)
				}
				offset = v
			}
		case "length":
			if entry.Value != "" {
				v, err := strconv.ParseInt(entry.Value, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid length value: %s", entry.Value)
				}
				length = v
			}
		}
	}
	if location == "" {
		return fmt.Errorf("external data location not specified for tensor %q", t.Name)
	}

	path := location
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(modelPath), location)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read external data file %s: %w", path, err)
	}
	if offset > 0 {
		if int64(len(data)) <= offset {
			return fmt.Errorf("offset %d exceeds external file size %d", offset, len(data))
		}
		data = data[offset:]
	}
	if length > 0 {
		if int64(len(data)) < length {
			return fmt.Errorf("external file %s holds %d bytes, need %d", path, len(data), length)
		}
		data = data[:length]
	}

	t.RawData = data
	t.ExternalData = nil
	return nil
}
