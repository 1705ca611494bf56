package filestate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"sleepreport/ports"
)

type offsetState struct {
	Offset int64 `json:"offset"`
}

// OffsetFile remembers the next chat update to fetch
type OffsetFile struct {
	path string
}

// NewOffsetFile stores the offset at path
func NewOffsetFile(path string) ports.OffsetStore {
	return &OffsetFile{path: path}
}

// LoadOffset returns 0 for a missing or unreadable file, which replays
// whatever updates the Bot API still holds
func (o *OffsetFile) LoadOffset(ctx context.Context) (int64, error) {
	data, err := os.ReadFile(o.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[OffsetFile] cannot read %s: %v", o.path, err)
		}
		return 0, nil
	}

	var st offsetState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("[OffsetFile] ignoring corrupt state %s: %v", o.path, err)
		return 0, nil
	}
	return st.Offset, nil
}

func (o *OffsetFile) SaveOffset(ctx context.Context, offset int64) error {
	if offset < 0 {
		return fmt.Errorf("refusing to save negative offset %d", offset)
	}
	data, err := json.Marshal(offsetState{Offset: offset})
	if err != nil {
		return err
	}
	return writeAtomic(o.path, data)
}
