// Package corpus turns raw text into the word -> frequency mapping training
// consumes.
package corpus

import (
	"strings"
	"unicode"

	"github.com/bpevocab/internal/symbol"
)

// SplitConfig controls how a line is cut into words.
type SplitConfig struct {
	Lowercase bool `yaml:"lowercase" json:"lowercase"`
	// DigitsToAt emits every digit as a standalone "@" word.
	DigitsToAt     bool `yaml:"digits_to_at" json:"digits_to_at"`
	KeepHyphen     bool `yaml:"keep_hyphen" json:"keep_hyphen"`
	KeepApostrophe bool `yaml:"keep_apostrophe" json:"keep_apostrophe"`
	// SplitClitics ends a word right after an apostrophe ("l'eau" -> "l'",
	// "eau"). It needs KeepApostrophe.
	SplitClitics bool `yaml:"split_clitics" json:"split_clitics"`
}

func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		Lowercase:      true,
		DigitsToAt:     true,
		KeepHyphen:     false,
		KeepApostrophe: true,
		SplitClitics:   false,
	}
}

const (
	dropped  = "\"(){}[]\t"
	standing = ".?!,:;"
)

// SplitLine splits line on spaces and cleans each piece:
//   - quotes, brackets and tabs are dropped;
//   - sentence punctuation (.?!,:;) becomes its own word;
//   - digits become "@" words when DigitsToAt is set, and are emitted as
//     soon as they are seen, ahead of the word they interrupt;
//   - hyphens and apostrophes are kept only when configured.
func SplitLine(line string, cfg SplitConfig) []string {
	if line == "" {
		return nil
	}
	if cfg.Lowercase {
		line = symbol.Lower(line)
	}

	var out []string
	var token strings.Builder
	flush := func() {
		if token.Len() > 0 {
			out = append(out, token.String())
			token.Reset()
		}
	}

	for _, raw := range strings.Split(line, " ") {
		if raw == "" {
			continue
		}
		for _, c := range raw {
			switch {
			case unicode.IsDigit(c):
				if cfg.DigitsToAt {
					out = append(out, "@")
				} else {
					token.WriteRune(c)
				}
			case c == '\'':
				if !cfg.KeepApostrophe {
					continue
				}
				token.WriteRune(c)
				if cfg.SplitClitics {
					flush()
				}
			case c == '-':
				if cfg.KeepHyphen {
					token.WriteRune(c)
				}
			case strings.ContainsRune(dropped, c):
			case strings.ContainsRune(standing, c):
				flush()
				out = append(out, string(c))
			default:
				token.WriteRune(c)
			}
		}
		flush()
	}
	return out
}
