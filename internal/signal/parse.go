package signal

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Source keys accepted in upstream documents. The first entry of each group
// is canonical and wins over the vendor alias when both are present.
var (
	reviewKeys   = []string{"review", "coderabbit"}
	buildKeys    = []string{"build", "vercel"}
	coverageKeys = []string{"coverage", "codecov"}
	shadowKeys   = []string{"shadow", "shadow_agent"}

	// coverage tools disagree on the field name.
	percentFields = []string{"percent", "coverage", "line_coverage"}
)

// Document is a bundle loaded from a file together with its provenance.
type Document struct {
	Path   string
	Hash   string
	Bundle *Bundle
}

// Load reads a bundle file and computes its SHA-256 hash. A path of "-"
// reads from stdin.
func Load(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("signal.Load: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("signal.Load: %s: %w", path, err)
	}
	h := sha256.Sum256(data)
	return &Document{
		Path:   path,
		Hash:   fmt.Sprintf("sha256:%x", h),
		Bundle: b,
	}, nil
}

// Parse decodes an upstream JSON document keyed by source name into a
// normalized Bundle. Fields of the wrong JSON type are rejected; numeric
// values outside their range are clamped.
func Parse(data []byte) (*Bundle, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	b := &Bundle{}
	consumed := make(map[string]bool)

	if raw, key := pick(doc, reviewKeys, consumed); raw != nil {
		if err := decodeSource(raw, &b.Review); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	if raw, key := pick(doc, buildKeys, consumed); raw != nil {
		if err := decodeSource(raw, &b.Build); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	if raw, key := pick(doc, coverageKeys, consumed); raw != nil {
		pct, err := decodePercent(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		b.Coverage.Percent = pct
	}
	if raw, key := pick(doc, shadowKeys, consumed); raw != nil {
		if err := decodeSource(raw, &b.Shadow); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}

	for k, v := range doc {
		if consumed[k] {
			continue
		}
		if b.Extra == nil {
			b.Extra = make(map[string]json.RawMessage)
		}
		b.Extra[k] = v
	}

	b.Normalize()
	return b, nil
}

// pick returns the first present, non-null document among keys and marks
// every alias as consumed so the losers do not leak into Extra.
func pick(doc map[string]json.RawMessage, keys []string, consumed map[string]bool) (json.RawMessage, string) {
	var (
		found json.RawMessage
		name  string
	)
	for _, k := range keys {
		raw, ok := doc[k]
		if !ok {
			continue
		}
		consumed[k] = true
		if found == nil && !isNull(raw) {
			found, name = raw, k
		}
	}
	return found, name
}

func decodeSource(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func decodePercent(raw json.RawMessage) (float64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	for _, name := range percentFields {
		v, ok := fields[name]
		if !ok || isNull(v) {
			continue
		}
		var pct float64
		if err := json.Unmarshal(v, &pct); err != nil {
			return 0, fmt.Errorf("%s: %w", name, err)
		}
		return pct, nil
	}
	return 0, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// Document returns the canonical view of the bundle: the four scored
// sources under their canonical keys followed by any extra documents.
func (b *Bundle) Document() map[string]any {
	doc := map[string]any{
		"review":   b.Review,
		"build":    b.Build,
		"coverage": b.Coverage,
		"shadow":   b.Shadow,
	}
	for k, v := range b.Extra {
		if _, taken := doc[k]; taken {
			continue
		}
		doc[k] = v
	}
	return doc
}

// MarshalJSON encodes the canonical view. encoding/json sorts map keys, so
// the output is stable.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Document())
}

// ExtraKeys returns the names of the extra documents in sorted order.
func (b *Bundle) ExtraKeys() []string {
	keys := make([]string, 0, len(b.Extra))
	for k := range b.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
