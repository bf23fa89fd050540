package casebundle

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NoiseLevel scales the OCR corruption probabilities.
type NoiseLevel string

const (
	NoiseMild   NoiseLevel = "mild"
	NoiseMedium NoiseLevel = "medium"
	NoiseHard   NoiseLevel = "hard"
)

type noiseRates struct {
	drop, swap, dup, space, newline float64
}

var rates = map[NoiseLevel]noiseRates{
	NoiseMild:   {0.01, 0.02, 0.005, 0.01, 0.005},
	NoiseMedium: {0.02, 0.04, 0.01, 0.02, 0.01},
	NoiseHard:   {0.05, 0.08, 0.02, 0.03, 0.02},
}

var swaps = map[rune]rune{
	'o': '0', 'O': '0',
	'l': '1', 'I': '1', 'i': '1',
	's': '5', 'S': '5',
	'e': '3', 'E': '3',
}

const (
	minNoisyLen = 20
	maxNoisyLen = 4000
)

var (
	hspace     = regexp.MustCompile(`[ \t]+`)
	manyBlank  = regexp.MustCompile(`\n{3,}`)
	manyHSpace = regexp.MustCompile(`[ \t]{3,}`)
)

// StripAccents removes combining marks after canonical decomposition.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ApplyNoise corrupts text the way a cheap OCR pass would. The output is a
// pure function of text, seed and level. Unknown levels use NoiseMedium.
func ApplyNoise(text string, seed int64, level NoiseLevel) string {
	rt, ok := rates[level]
	if !ok {
		rt = rates[NoiseMedium]
	}
	r := rand.New(rand.NewPCG(uint64(seed), 0))

	base := hspace.ReplaceAllString(StripAccents(text), " ")

	var out strings.Builder
	out.Grow(len(base) + len(base)/8)
	for _, ch := range base {
		if r.Float64() < rt.drop && ch != '\n' {
			continue
		}
		if sw, ok := swaps[ch]; ok && r.Float64() < rt.swap {
			ch = sw
		}
		out.WriteRune(ch)

		if r.Float64() < rt.dup && (unicode.IsLetter(ch) || unicode.IsDigit(ch)) {
			out.WriteRune(ch)
		}

		if r.Float64() < rt.newline {
			out.WriteByte('\n')
		} else if r.Float64() < rt.space {
			if r.Float64() < 0.7 {
				out.WriteByte(' ')
			} else {
				out.WriteString("  ")
			}
		}
	}

	noisy := manyBlank.ReplaceAllString(out.String(), "\n\n")
	noisy = manyHSpace.ReplaceAllString(noisy, "  ")
	noisy = strings.TrimSpace(noisy)
	if len([]rune(noisy)) < minNoisyLen {
		noisy = strings.TrimSpace(base)
	}
	if rs := []rune(noisy); len(rs) > maxNoisyLen {
		noisy = string(rs[:maxNoisyLen])
	}
	return noisy + "\n"
}
