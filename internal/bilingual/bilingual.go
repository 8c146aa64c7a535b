// Package bilingual resolves the English or Chinese variant of a program
// attribute stored as parallel "<base>_en" / "<base>_zh" keys.
package bilingual

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/garyellow/program-catalog-go/internal/program"
)

// Language is a supported display language.
type Language string

// Supported languages.
const (
	English Language = "en"
	Chinese Language = "zh"
)

// Default is used when no language preference can be matched.
const Default = English

var supported = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(supported)

// listFields are bilingual attributes whose legacy content lives in the raw
// grade_levels list.
var listFields = map[string]struct{}{
	"grade_level":   {},
	"grade_levels":  {},
	"program_type":  {},
	"program_types": {},
}

// Other returns the opposite language.
func (l Language) Other() Language {
	if l == Chinese {
		return English
	}
	return Chinese
}

// ParseLanguage maps a language tag such as "zh-TW" or "en_US" to a supported language.
func ParseLanguage(s string) (Language, bool) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return English, true
	case "zh":
		return Chinese, true
	}
	return "", false
}

// MatchAcceptLanguage picks the best supported language for an Accept-Language header.
func MatchAcceptLanguage(header string) Language {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if supported[idx] == language.Chinese {
		return Chinese
	}
	return English
}

// IsListField reports whether base is a list-typed bilingual attribute.
func IsListField(base string) bool {
	_, ok := listFields[base]
	return ok
}

// Resolve returns the value of base in lang.
//
// An empty or missing list-typed attribute falls back to the record's raw
// grade_levels list, picking the entry written in lang. Any other empty
// attribute falls back to the other language, then to "".
func Resolve(p *program.Program, lang Language, base string) string {
	if p == nil {
		return ""
	}
	if v := p.Attr(base + "_" + string(lang)); v != "" {
		return v
	}
	if IsListField(base) {
		return pickByScript(p.GradeLevels, lang)
	}
	return p.Attr(base + "_" + string(lang.Other()))
}

// TagName returns the tag label in lang, falling back to the other language.
func TagName(t program.Tag, lang Language) string {
	en, zh := t.NameEN, t.NameZH
	if lang == Chinese {
		en, zh = zh, en
	}
	if en != "" {
		return en
	}
	return zh
}

// pickByScript returns the first entry written predominantly in the script
// of lang, then the first entry containing any such character, then the first
// entry, then "".
func pickByScript(entries []string, lang Language) string {
	if len(entries) == 0 {
		return ""
	}
	decoded := make([]string, len(entries))
	for i, e := range entries {
		decoded[i] = DecodeLegacyEncoding(e)
	}

	want := unicode.Latin
	if lang == Chinese {
		want = unicode.Han
	}
	for _, e := range decoded {
		if whatlanggo.DetectScript(e) == want {
			return e
		}
	}
	for _, e := range decoded {
		if containsScript(e, lang) {
			return e
		}
	}
	return decoded[0]
}

func containsScript(s string, lang Language) bool {
	for _, r := range s {
		if lang == Chinese && unicode.Is(unicode.Han, r) {
			return true
		}
		if lang == English && r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
