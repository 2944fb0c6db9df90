package hitcache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

type entryDTO struct {
	Version int      `msgpack:"v"`
	Hits    []hitDTO `msgpack:"h"`
}

// hitDTO omits the database, which is implied by the cache key.
type hitDTO struct {
	SubjectID string   `msgpack:"s"`
	BitScore  float64  `msgpack:"b"`
	EValue    *float64 `msgpack:"e,omitempty"`
	Identity  *float64 `msgpack:"i,omitempty"`
	Label     string   `msgpack:"l,omitempty"`
}

func encode(hits []hit.Hit) ([]byte, error) {
	entry := entryDTO{Version: schemaVersion, Hits: make([]hitDTO, len(hits))}
	for i, h := range hits {
		d := hitDTO{SubjectID: h.SubjectID(), BitScore: h.BitScore(), Label: h.Label()}
		if v, ok := h.EValue(); ok {
			d.EValue = &v
		}
		if v, ok := h.Identity(); ok {
			d.Identity = &v
		}
		entry.Hits[i] = d
	}
	data, err := msgpack.Marshal(&entry)
	if err != nil {
		return nil, fmt.Errorf("marshal hits: %w", err)
	}
	return data, nil
}

func decode(data []byte, dbName string) ([]hit.Hit, error) {
	var entry entryDTO
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal hits: %w", err)
	}
	if entry.Version != schemaVersion {
		return nil, fmt.Errorf("unsupported cache schema version %d", entry.Version)
	}
	hits := make([]hit.Hit, len(entry.Hits))
	for i, d := range entry.Hits {
		h := hit.New(dbName, d.SubjectID, d.BitScore)
		if d.EValue != nil {
			h = h.WithEValue(*d.EValue)
		}
		if d.Identity != nil {
			h = h.WithIdentity(*d.Identity)
		}
		if d.Label != "" {
			h = h.WithLabel(d.Label)
		}
		hits[i] = h
	}
	return hits, nil
}
