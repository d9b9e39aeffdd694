// Package secrets resolves declared secret variables from the environment and
// masks their values in any text that leaves the process (logs, reports,
// recorded command lines).
package secrets

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/wheelforge/wheelforge/internal/config"
)

// MaskString replaces every secret occurrence in masked output.
const MaskString = "***"

// Store holds resolved secret values keyed by declared name.
type Store struct {
	values map[string]string
}

// Resolve builds a Store from the declared secrets, reading each value from
// its environment variable. Declared secrets with unset or empty environment
// variables are reported together as a single error.
func Resolve(declared []*config.Secret) (*Store, error) {
	values := make(map[string]string, len(declared))
	var missing []string
	for _, s := range declared {
		val, ok := os.LookupEnv(s.Env)
		if !ok || val == "" {
			missing = append(missing, fmt.Sprintf("%s (env %s)", s.Name, s.Env))
			continue
		}
		values[s.Name] = val
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("unresolved secrets: %s", strings.Join(missing, ", "))
	}
	return &Store{values: values}, nil
}

// Empty returns a Store with no secrets.
func Empty() *Store {
	return &Store{values: map[string]string{}}
}

// Get returns the value of a secret and whether it exists.
func (s *Store) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the declared secret names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for n := range s.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Values returns all secret values. Used only to build maskers and eval
// contexts; never log the result.
func (s *Store) Values() map[string]string {
	return s.values
}

// Masker rewrites text so that no secret value survives in it.
type Masker struct {
	replacer *strings.Replacer
}

// NewMasker builds a Masker over every non-empty value in the store.
func NewMasker(s *Store) *Masker {
	var pairs []string
	for _, v := range s.values {
		if len(v) == 0 {
			continue
		}
		pairs = append(pairs, v, MaskString)
	}
	return &Masker{replacer: strings.NewReplacer(pairs...)}
}

// Mask returns the input with all secret values replaced.
func (m *Masker) Mask(in string) string {
	return m.replacer.Replace(in)
}

// MaskAll masks every string in a slice, returning a new slice.
func (m *Masker) MaskAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = m.Mask(s)
	}
	return out
}

// MaskingWriter wraps an io.Writer, masking each Write. Writes are assumed to
// be line-buffered (slog handlers emit whole records per Write), so a secret
// cannot straddle two writes.
type MaskingWriter struct {
	W      io.Writer
	Masker *Masker
}

// Write implements io.Writer.
func (w *MaskingWriter) Write(p []byte) (int, error) {
	masked := w.Masker.Mask(string(p))
	if _, err := w.W.Write([]byte(masked)); err != nil {
		return 0, err
	}
	// Report the original length so slog does not treat the rewrite as a
	// short write.
	return len(p), nil
}
