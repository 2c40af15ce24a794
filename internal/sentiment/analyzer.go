package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

//go:embed lexicon.txt
var lexiconData string

const (
	// normalizationAlpha flattens the compound score into [-1, 1].
	normalizationAlpha = 15.0
	// negationDampen is applied to a valence inside a negation window.
	negationDampen = -0.74
	// boosterStep is the intensity added or removed by a degree modifier.
	boosterStep = 0.293
	// capsEmphasis is added to a valence for an all-caps token, when the
	// whole text is not shouting.
	capsEmphasis = 0.733
	// negationWindow is how many preceding tokens a negator reaches.
	negationWindow = 3
)

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nor": {},
	"cannot": {}, "cant": {}, "dont": {}, "doesnt": {}, "didnt": {},
	"isnt": {}, "wasnt": {}, "wont": {}, "wouldnt": {}, "couldnt": {},
	"shouldnt": {}, "aint": {}, "without": {}, "nothing": {},
}

var boosters = map[string]float64{
	"absolutely": boosterStep, "completely": boosterStep, "extremely": boosterStep,
	"really": boosterStep, "so": boosterStep, "super": boosterStep,
	"totally": boosterStep, "very": boosterStep, "incredibly": boosterStep,
	"barely": -boosterStep, "hardly": -boosterStep, "kinda": -boosterStep,
	"slightly": -boosterStep, "somewhat": -boosterStep, "marginally": -boosterStep,
}

// Scores holds the per-text sentiment measures. Compound is in [-1, 1];
// Pos/Neu/Neg are the shares of scored mass and sum to ~1.
type Scores struct {
	Compound float64
	Pos      float64
	Neu      float64
	Neg      float64
}

// Analyzer is a lexicon-driven intensity scorer with negation, degree
// modifiers, and capitalization emphasis.
type Analyzer struct {
	lexicon map[string]float64
}

// NewAnalyzer loads the embedded valence lexicon.
func NewAnalyzer() (*Analyzer, error) {
	lexicon, err := parseLexicon(lexiconData)
	if err != nil {
		return nil, err
	}
	return &Analyzer{lexicon: lexicon}, nil
}

func parseLexicon(data string) (map[string]float64, error) {
	lexicon := make(map[string]float64)
	scanner := bufio.NewScanner(strings.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("lexicon line %d: want \"token score\", got %q", lineNo, line)
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", lineNo, err)
		}
		lexicon[fields[0]] = score
	}
	return lexicon, scanner.Err()
}

// Score rates one text. Empty or fully neutral text scores zero compound
// with all mass in Neu.
func (a *Analyzer) Score(text string) Scores {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Scores{Neu: 1}
	}
	shouting := allCaps(tokens)

	valences := make([]float64, len(tokens))
	for i, tok := range tokens {
		valence, known := a.lexicon[tok.lower]
		if !known {
			continue
		}
		if tok.caps && !shouting {
			if valence > 0 {
				valence += capsEmphasis
			} else {
				valence -= capsEmphasis
			}
		}
		for back := 1; back <= negationWindow && i-back >= 0; back++ {
			prev := tokens[i-back].lower
			if boost, ok := boosters[prev]; ok {
				// A modifier farther away contributes less.
				scaled := boost * (1 - 0.05*float64(back-1))
				if valence > 0 {
					valence += scaled
				} else {
					valence -= scaled
				}
				continue
			}
			if _, ok := negators[prev]; ok {
				valence *= negationDampen
				break
			}
		}
		valences[i] = valence
	}

	var sum, posSum, negSum float64
	neutral := 0
	for _, v := range valences {
		sum += v
		switch {
		case v > 0:
			posSum += v + 1
		case v < 0:
			negSum += v - 1
		default:
			neutral++
		}
	}

	// Exclamation marks amplify the overall signal, capped at four.
	bangs := strings.Count(text, "!")
	if bangs > 4 {
		bangs = 4
	}
	amp := float64(bangs) * 0.292
	if sum > 0 {
		sum += amp
	} else if sum < 0 {
		sum -= amp
	}

	compound := sum / math.Sqrt(sum*sum+normalizationAlpha)

	total := posSum + math.Abs(negSum) + float64(neutral)
	scores := Scores{Compound: round4(compound)}
	if total > 0 {
		scores.Pos = round3(posSum / total)
		scores.Neg = round3(math.Abs(negSum) / total)
		scores.Neu = round3(float64(neutral) / total)
	} else {
		scores.Neu = 1
	}
	return scores
}

type token struct {
	lower string
	caps  bool
}

func tokenize(text string) []token {
	var tokens []token
	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		word = strings.ReplaceAll(word, "'", "")
		if word == "" {
			continue
		}
		tokens = append(tokens, token{
			lower: strings.ToLower(word),
			caps:  isAllCaps(word),
		})
	}
	return tokens
}

func isAllCaps(word string) bool {
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter && len([]rune(word)) > 1
}

func allCaps(tokens []token) bool {
	for _, tok := range tokens {
		if !tok.caps {
			return false
		}
	}
	return len(tokens) > 0
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
