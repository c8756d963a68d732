// Package header decides whether a fixed-size emulator header must be stripped from a
// ROM payload before hashing.
package header

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
)

// Rule is a byte signature that proves a header is present.
type Rule struct {
	Offset int    `mapstructure:"offset" json:"offset" yaml:"offset"`
	Value  string `mapstructure:"value" json:"value" yaml:"value"`
}

// Config is the header length of a collection and the rules that must all pass
// before Length bytes are skipped.
type Config struct {
	Length int    `mapstructure:"length" json:"length" yaml:"length"`
	Rules  []Rule `mapstructure:"rules" json:"rules" yaml:"rules"`
}

// Validate rejects negative lengths and offsets and rule values that are not whole hex bytes.
func (c Config) Validate() error {
	if c.Length < 0 {
		return fmt.Errorf("%w: negative header length %d", errors.ErrInvalidHeaderRule, c.Length)
	}
	for i, r := range c.Rules {
		if r.Offset < 0 {
			return fmt.Errorf("%w: rule %d has negative offset %d", errors.ErrInvalidHeaderRule, i, r.Offset)
		}
		if r.Value == "" || len(r.Value)%2 != 0 {
			return fmt.Errorf("%w: rule %d value %q must be an even number of hex digits", errors.ErrInvalidHeaderRule, i, r.Value)
		}
		if _, err := hex.DecodeString(r.Value); err != nil {
			return fmt.Errorf("%w: rule %d value %q: %v", errors.ErrInvalidHeaderRule, i, r.Value, err)
		}
	}
	return nil
}

// Matches reports whether the rule's signature is present in data.
// A rule reaching past the end of data does not match.
func (r Rule) Matches(data []byte) bool {
	n := len(r.Value) / 2
	if r.Offset < 0 || n == 0 || r.Offset+n > len(data) {
		return false
	}
	got := hex.EncodeToString(data[r.Offset : r.Offset+n])
	return strings.EqualFold(got, r.Value)
}

// SkipOffset returns the number of leading bytes to exclude from hashing.
func SkipOffset(data []byte, cfg Config) int {
	if cfg.Length <= 0 {
		return 0
	}
	// nothing would be left to hash
	if cfg.Length >= len(data) {
		return 0
	}
	for _, r := range cfg.Rules {
		if !r.Matches(data) {
			return 0
		}
	}
	return cfg.Length
}

// Strip returns the slice of data that is hashed.
func Strip(data []byte, cfg Config) []byte {
	return data[SkipOffset(data, cfg):]
}

// String renders the config for logs and cache fingerprints.
func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "len=%d", c.Length)
	for _, r := range c.Rules {
		fmt.Fprintf(&b, ";%d:%s", r.Offset, strings.ToUpper(r.Value))
	}
	return b.String()
}
