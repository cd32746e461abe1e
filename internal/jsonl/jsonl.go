// Package jsonl exports and imports investments as JSON Lines, one
// investment per line with its entries and forecasts nested.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Export writes investments to path atomically.
func Export(path string, investments []*types.Investment) error {
	records := make([]json.RawMessage, 0, len(investments))
	for _, inv := range investments {
		b, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("encoding investment %d: %w", inv.ID, err)
		}
		records = append(records, b)
	}
	return writeJSONL(path, records)
}

// Import reads investments from path. Lines that are not valid JSON or do
// not decode as an investment are skipped and counted.
func Import(path string) (investments []*types.Investment, skipped int, err error) {
	records, skipped, err := readJSONL(path)
	if err != nil {
		return nil, 0, err
	}
	for _, rec := range records {
		var inv types.Investment
		if err := json.Unmarshal(rec, &inv); err != nil {
			skipped++
			continue
		}
		inv.LinkEntries()
		for _, f := range inv.Forecasts {
			f.InvestmentID = inv.ID
			f.Normalize()
		}
		investments = append(investments, &inv)
	}
	return investments, skipped, nil
}

// readJSONL returns each non-empty, parseable line of path. Malformed lines
// are counted in skipped.
func readJSONL(path string) (records []json.RawMessage, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// writeJSONL writes records using the temp-file, fsync, rename pattern so a
// crash never leaves a partial file behind.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(what string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", what, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
