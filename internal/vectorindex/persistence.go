package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const legacyFormatVersion = 1

// writeLegacyV1 writes the v1 binary layout: [u32 version, u32 dim, u32
// count, (u32 idLen, bytes id, f32[dim])*].
func writeLegacyV1(path string, dim int, vectors map[string][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vector index file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, uint32(legacyFormatVersion)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vectors))); err != nil {
		return err
	}

	for id, data := range vectors {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return err
		}
		if _, err := w.WriteString(id); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, data); err != nil {
			return err
		}
	}

	return w.Flush()
}

func readLegacyV1(path string) (dim int, vectors map[string][]float32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("opening vector index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var version, fileDim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, nil, fmt.Errorf("reading version: %w", err)
	}
	if version != legacyFormatVersion {
		return 0, nil, fmt.Errorf("unsupported legacy vector index version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &fileDim); err != nil {
		return 0, nil, fmt.Errorf("reading dimension: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, nil, fmt.Errorf("reading count: %w", err)
	}

	vectors = make(map[string][]float32, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return 0, nil, fmt.Errorf("reading id length for record %d: %w", i, err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return 0, nil, fmt.Errorf("reading id for record %d: %w", i, err)
		}

		data := make([]float32, fileDim)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return 0, nil, fmt.Errorf("reading vector data for record %d: %w", i, err)
		}
		vectors[string(idBytes)] = data
	}

	return int(fileDim), vectors, nil
}

// jsonDocV2 is the v2 on-disk format: the HNSW graph topology plus the
// raw vector payload. Load reads back only Dim and Vectors; the saved
// Links and Entry are not restored, and the graph is rebuilt from the
// vectors on the next search.
type jsonDocV2 struct {
	Version int                    `json:"version"`
	Dim     int                    `json:"dim"`
	Metric  int                    `json:"metric"`
	Vectors map[string][]float32   `json:"vectors"`
	Links   map[string][]string    `json:"links,omitempty"`
	Entry   string                 `json:"entry,omitempty"`
}

func writeJSONV2(path string, dim int, metric Metric, vectors map[string][]float32, links map[string]map[string]struct{}, entry string) error {
	doc := jsonDocV2{
		Version: 2,
		Dim:     dim,
		Metric:  int(metric),
		Vectors: vectors,
		Entry:   entry,
	}
	if links != nil {
		doc.Links = make(map[string][]string, len(links))
		for id, neighbors := range links {
			ids := make([]string, 0, len(neighbors))
			for n := range neighbors {
				ids = append(ids, n)
			}
			doc.Links[id] = ids
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling vector index: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing vector index file: %w", err)
	}
	return nil
}

func readJSONV2(path string) (*jsonDocV2, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vector index file: %w", err)
	}
	var doc jsonDocV2
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("vector index file corrupted: %w", err)
	}
	return &doc, nil
}

// detectFormat inspects the first byte of the file: '{' means JSON
// (v2), anything else is assumed to be the legacy v1 binary layout.
func detectFormat(path string) (isJSON bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		return false, fmt.Errorf("reading format marker: %w", err)
	}
	return buf[0] == '{', nil
}
