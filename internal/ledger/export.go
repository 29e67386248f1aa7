// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2png/pkg/types"
)

// ExportYAML writes entries to w as a YAML sequence.
func ExportYAML(w io.Writer, entries []types.LedgerEntry) error {
	if entries == nil {
		entries = []types.LedgerEntry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes entries to w as an indented JSON array.
func ExportJSON(w io.Writer, entries []types.LedgerEntry) error {
	if entries == nil {
		entries = []types.LedgerEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
