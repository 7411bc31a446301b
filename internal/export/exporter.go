// Package export writes a finished aggregate to disk.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ownerscan-go/internal/aggregate"
)

const (
	uniqueTag = "_Unique_Addresses"
	allTag    = "_All_Addresses"
	countTag  = "_Owners_Tokens_Count"
)

// Result is the confirmation handed back to the command layer.
type Result struct {
	Message  string
	FilePath string
}

// Exporter writes aggregates into a single output directory.
type Exporter struct {
	dir string
	log zerolog.Logger
}

// NewExporter creates an exporter rooted at dir ("." when empty).
func NewExporter(dir string, log zerolog.Logger) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, log: log}
}

// FileName returns the file a mode's export is written to for prefix.
func FileName(mode aggregate.Mode, prefix string) string {
	prefix = sanitizePrefix(prefix)
	if mode == aggregate.OwnerCount {
		return prefix + countTag + ".csv"
	}
	onlyUnique, allHolders := mode.Facets()
	name := prefix
	if onlyUnique {
		name += uniqueTag
	}
	if allHolders {
		name += allTag
	}
	return name + ".txt"
}

// Export serializes acc using the format of its mode.
func (e *Exporter) Export(acc aggregate.Accumulator, prefix string) (*Result, error) {
	var (
		data    []byte
		err     error
		message string
	)
	switch a := acc.(type) {
	case *aggregate.AddressSet:
		data, err = marshalIndent(a.Addresses())
		message = "Here are the queried owners, unique addresses only:"
	case *aggregate.AddressList:
		data, err = marshalIndent(a.Addresses())
		message = "Here are the queried owners, one entry per token held:"
	case *aggregate.OwnerCounts:
		data, err = encodeCounts(a.Rows())
		message = "CSV file created with the queried owners and the number of tokens owned:"
	case *aggregate.OwnerTokenTable:
		data, err = encodeTokenLists(a.Entries())
		message = "Here are the queried owners and the token ids each one holds:"
	default:
		return nil, fmt.Errorf("unsupported accumulator %T", acc)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s export: %w", acc.Mode(), err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(e.dir, FileName(acc.Mode(), prefix))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	e.log.Info().Str("path", path).Str("mode", acc.Mode().String()).Int("entries", acc.Len()).Msg("export written")
	return &Result{Message: message, FilePath: path}, nil
}

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func encodeCounts(rows []aggregate.OwnerCountRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"owner_address", "tokens_owned"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Owner, strconv.Itoa(row.Tokens)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	// rows are newline-separated, not terminated; a header-only table keeps its newline
	if len(rows) > 0 {
		out = bytes.TrimSuffix(out, []byte("\n"))
	}
	return out, nil
}

// encodeTokenLists writes a JSON object keyed by owner, keeping first-seen
// owner order rather than the sorted order encoding/json gives maps.
func encodeTokenLists(entries []aggregate.OwnerTokenList) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, entry := range entries {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := json.Marshal(entry.Owner)
		if err != nil {
			return nil, err
		}
		ids, err := json.Marshal(entry.TokenIDs)
		if err != nil {
			return nil, err
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(ids)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// sanitizePrefix keeps the prefix inside the output directory.
func sanitizePrefix(prefix string) string {
	prefix = filepath.Base(strings.TrimSpace(prefix))
	if prefix == "." || prefix == string(filepath.Separator) || prefix == "" {
		return "owners"
	}
	return prefix
}
