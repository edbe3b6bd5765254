package service

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// English words allowed to survive the section ratio pass.
var allowedEnglish = map[string]struct{}{
	"love": {}, "baby": {}, "yeah": {}, "oh": {}, "feel": {},
	"heart": {}, "light": {}, "dream": {}, "tonight": {}, "stay": {},
	"you": {}, "me": {}, "we": {}, "my": {}, "your": {},
}

var (
	reHangulKeep = regexp.MustCompile(`[^가-힣0-9 .,!?()\n-]`)
	reSpaceRuns  = regexp.MustCompile(`[ \t]{2,}`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
	reLatinWord  = regexp.MustCompile(`[A-Za-z]+`)
	reLatinChar  = regexp.MustCompile(`[A-Za-z]`)
)

// Maximum latin character ratio per section. Order matters: "pre-chorus"
// must match before "chorus".
var sectionRules = []struct {
	name string
	max  float64
}{
	{"pre-chorus", 0.10},
	{"pre chorus", 0.10},
	{"chorus", 0.35},
	{"hook", 0.35},
	{"bridge", 0.15},
	{"outro", 0.15},
	{"verse", 0.05},
}

const defaultSectionRatio = 0.05

// NormalizeKorean NFC-normalizes the text and strips everything outside
// hangul, digits and basic punctuation, then squeezes whitespace runs.
func NormalizeKorean(text string) string {
	t := norm.NFC.String(text)
	t = reHangulKeep.ReplaceAllString(t, "")
	t = reSpaceRuns.ReplaceAllString(t, " ")
	t = reBlankRuns.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

// KoreanRatio reports the share of hangul runes in the text.
func KoreanRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}

	ko := 0
	for _, r := range runes {
		if r >= '가' && r <= '힣' {
			ko++
		}
	}

	return float64(ko) / float64(len(runes))
}

// KeepWhitelistEnglish removes every latin word outside the allowed set.
func KeepWhitelistEnglish(text string) string {
	return reLatinWord.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := allowedEnglish[strings.ToLower(w)]; ok {
			return w
		}
		return ""
	})
}

// LimitEnglishBySection enforces each section's maximum latin ratio. A
// section that exceeds its ratio keeps only whitelisted English. Lines
// before the first recognized header count as a verse.
func LimitEnglishBySection(text string) string {
	var out []string
	current := "verse"
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunk := strings.Join(buf, "\n")
		if latinRatio(chunk) > maxRatioFor(current) {
			chunk = KeepWhitelistEnglish(chunk)
		}
		out = append(out, chunk)
	}

	for _, line := range strings.Split(text, "\n") {
		low := strings.ToLower(strings.TrimSpace(line))
		if name, ok := sectionFor(low); ok {
			flush()
			current = name
			buf = []string{line}
		} else {
			buf = append(buf, line)
		}
	}
	flush()

	return strings.Join(out, "\n")
}

// RefineLyrics applies the full post-processing chain. Note the final
// normalization keeps hangul only: whitelisted English survives the section
// pass but not the final strip.
func RefineLyrics(text string) string {
	return NormalizeKorean(KeepWhitelistEnglish(LimitEnglishBySection(text)))
}

func sectionFor(line string) (string, bool) {
	for _, rule := range sectionRules {
		if strings.Contains(line, rule.name) {
			return rule.name, true
		}
	}
	return "", false
}

func maxRatioFor(section string) float64 {
	for _, rule := range sectionRules {
		if rule.name == section {
			return rule.max
		}
	}
	return defaultSectionRatio
}

func latinRatio(chunk string) float64 {
	runes := []rune(chunk)
	if len(runes) == 0 {
		return 0
	}

	letters := reLatinChar.FindAllString(chunk, -1)
	return float64(len(letters)) / float64(len(runes))
}
