package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"ownerscan-go/internal/aggregate"
)

func filled(mode aggregate.Mode) aggregate.Accumulator {
	acc := aggregate.New(mode)
	for i, owner := range []string{"sei1b", "Sei1A", "sei1b", "sei1a"} {
		acc.Add(aggregate.Ownership{TokenID: uint64(i + 1), Owner: owner})
	}
	return acc
}

func TestFileName(t *testing.T) {
	cases := map[aggregate.Mode]string{
		aggregate.UniqueAddresses: "SeiBoys_Unique_Addresses.txt",
		aggregate.AllAddresses:    "SeiBoys_Unique_Addresses_All_Addresses.txt",
		aggregate.OwnerCount:      "SeiBoys_Owners_Tokens_Count.csv",
		aggregate.OwnerTokens:     "SeiBoys.txt",
	}
	for mode, expected := range cases {
		if got := FileName(mode, "SeiBoys"); got != expected {
			t.Fatalf("%s: expected %s got %s", mode, expected, got)
		}
	}
	if got := FileName(aggregate.OwnerCount, "../../etc/SeiBoys"); got != "SeiBoys_Owners_Tokens_Count.csv" {
		t.Fatalf("prefix escaped the output dir: %s", got)
	}
	if got := FileName(aggregate.UniqueAddresses, "  "); got != "owners_Unique_Addresses.txt" {
		t.Fatalf("unexpected fallback name: %s", got)
	}
}

func TestExportCountCSV(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, zerolog.Nop())

	res, err := exporter.Export(filled(aggregate.OwnerCount), "SeiBoys")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if res.FilePath != filepath.Join(dir, "SeiBoys_Owners_Tokens_Count.csv") {
		t.Fatalf("unexpected path %s", res.FilePath)
	}
	if !strings.HasPrefix(res.Message, "CSV file created") {
		t.Fatalf("unexpected message %q", res.Message)
	}
	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "owner_address,tokens_owned\nsei1b,2\nsei1a,2"
	if string(data) != want {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}

func TestExportAddressLists(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, zerolog.Nop())

	cases := map[aggregate.Mode][]string{
		aggregate.UniqueAddresses: {"sei1b", "Sei1A", "sei1a"},
		aggregate.AllAddresses:    {"sei1b", "Sei1A", "sei1b", "sei1a"},
	}
	for mode, want := range cases {
		res, err := exporter.Export(filled(mode), "SeiBoys")
		if err != nil {
			t.Fatalf("%s: Export returned error: %v", mode, err)
		}
		data, err := os.ReadFile(res.FilePath)
		if err != nil {
			t.Fatalf("%s: read export: %v", mode, err)
		}
		if !bytes.Contains(data, []byte("\n  \"sei1b\"")) {
			t.Fatalf("%s: expected two-space indented JSON, got %s", mode, data)
		}
		var got []string
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("%s: decode export: %v", mode, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: unexpected addresses (-want +got):\n%s", mode, diff)
		}
	}
}

func TestExportTokenListsKeepsOwnerOrder(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, zerolog.Nop())

	res, err := exporter.Export(filled(aggregate.OwnerTokens), "SeiBoys")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "{\n  \"sei1b\": [\n    1,\n    3\n  ],\n  \"Sei1A\": [\n    2\n  ],\n  \"sei1a\": [\n    4\n  ]\n}"
	if string(data) != want {
		t.Fatalf("unexpected token list export:\n%s", data)
	}
}

func TestExportEmptyAggregate(t *testing.T) {
	exporter := NewExporter(t.TempDir(), zerolog.Nop())
	res, err := exporter.Export(aggregate.New(aggregate.UniqueAddresses), "Empty")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	data, _ := os.ReadFile(res.FilePath)
	if string(data) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", data)
	}
}

func TestExportEmptyCountTableKeepsHeader(t *testing.T) {
	exporter := NewExporter(t.TempDir(), zerolog.Nop())
	res, err := exporter.Export(aggregate.New(aggregate.OwnerCount), "Empty")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "owner_address,tokens_owned\n" {
		t.Fatalf("unexpected csv %q", data)
	}
}

func TestExportWriteFailure(t *testing.T) {
	// a regular file where the output directory should be
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	exporter := NewExporter(blocker, zerolog.Nop())
	if _, err := exporter.Export(filled(aggregate.OwnerCount), "SeiBoys"); err == nil {
		t.Fatalf("expected write failure")
	}
}
