package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/viralops/viralfinder/internal/storage"
)

// ensure jsonBackend implements storage.Backend
var _ storage.Backend = (*jsonBackend)(nil)

type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

// New creates an NDJSON-backed storage.Backend. Each saved item is one
// JSON line appended to the file, so runs accumulate and the file stays
// greppable.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open items file: %w", err)
	}

	return &jsonBackend{file: f}, nil
}

func (b *jsonBackend) Save(ctx context.Context, item *storage.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append item: %w", err)
	}
	return nil
}

func (b *jsonBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind items file: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// A real DB handles ordering and offset/limit in the engine. For NDJSON
	// we read everything, filter in memory, then slice.
	var allFiltered []*storage.Item

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var it storage.Item
		if err := json.Unmarshal(line, &it); err != nil {
			return nil, fmt.Errorf("decode item line: %w", err)
		}

		if filter.Query != "" && it.Query != filter.Query {
			continue
		}
		if filter.Platform != "" && it.Platform != filter.Platform {
			continue
		}
		if filter.MinScore > 0 && it.EngagementScore < filter.MinScore {
			continue
		}
		if filter.Since != nil && it.CreatedAt.Before(*filter.Since) {
			continue
		}

		allFiltered = append(allFiltered, &it)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan items file: %w", err)
	}

	// Order by engagement score DESC so the best posts come first.
	for i := 1; i < len(allFiltered); i++ {
		for j := i; j > 0 && allFiltered[j].EngagementScore > allFiltered[j-1].EngagementScore; j-- {
			allFiltered[j], allFiltered[j-1] = allFiltered[j-1], allFiltered[j]
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(allFiltered) {
			return []*storage.Item{}, nil
		}
		allFiltered = allFiltered[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(allFiltered) {
		allFiltered = allFiltered[:filter.Limit]
	}

	return allFiltered, nil
}

func (b *jsonBackend) Close() error {
	return b.file.Close()
}
