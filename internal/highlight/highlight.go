// Package highlight turns code snippets into HTML with token spans of the
// form <span class="token CLASS">, the markup the documentation pages style.
//
// Lexing is done by chroma. Each chroma token is emitted once, so markup
// produced for one token is never matched again by another rule.
package highlight

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Token classes.
const (
	ClassProperty = "property"
	ClassString   = "string"
	ClassNumber   = "number"
	ClassBoolean  = "boolean"
	ClassNull     = "null"
	ClassKeyword  = "keyword"
	ClassFunction = "function"
	ClassComment  = "comment"
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape escapes the characters that would otherwise be read as markup.
func Escape(s string) string {
	return escaper.Replace(s)
}

// words the lexers leave as plain text but the pages highlight.
type override struct {
	re      *regexp.Regexp
	classes map[string]string
}

var overrides = map[string]override{
	"bash": {
		re: regexp.MustCompile(`--header|--request|--data|-H\b|-X\b|\bcurl\b`),
		classes: map[string]string{
			"curl": ClassFunction,
		},
	},
	"javascript": {
		re: regexp.MustCompile(`\b(?:fetch|Response|JSON)\b`),
		classes: map[string]string{
			"fetch": ClassFunction, "Response": ClassFunction, "JSON": ClassFunction,
		},
	},
}

var aliases = map[string]string{
	"":           "javascript",
	"js":         "javascript",
	"javascript": "javascript",
	"json":       "json",
	"bash":       "bash",
	"sh":         "bash",
	"shell":      "bash",
	"curl":       "bash",
	"python":     "python",
	"py":         "python",
}

// Language normalises a language name. Unknown names highlight as javascript.
func Language(name string) string {
	if lang, ok := aliases[strings.ToLower(name)]; ok {
		return lang
	}
	return "javascript"
}

// Highlight returns code as escaped HTML with token spans for language.
func Highlight(code, language string) string {
	lang := Language(language)

	lexer := lexers.Get(lang)
	if lexer == nil {
		return Escape(code)
	}
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return Escape(code)
	}
	tokens := it.Tokens()
	trimAddedNewline(tokens, code)

	var b strings.Builder
	ov, hasOverride := overrides[lang]
	for _, tok := range tokens {
		if tok.Value == "" {
			continue
		}
		class := classify(tok)
		if class == "" && hasOverride && !isLiteral(tok.Type) {
			writeOverrides(&b, ov, tok.Value)
			continue
		}
		writeToken(&b, class, tok.Value)
	}
	return b.String()
}

func classify(tok chroma.Token) string {
	switch {
	case tok.Type == chroma.NameTag:
		return ClassProperty
	case tok.Type == chroma.KeywordConstant:
		switch strings.TrimSpace(tok.Value) {
		case "true", "false", "True", "False":
			return ClassBoolean
		case "null", "None", "undefined":
			return ClassNull
		}
		return ClassKeyword
	case tok.Type.InCategory(chroma.Keyword):
		return ClassKeyword
	case tok.Type.InSubCategory(chroma.LiteralString):
		return ClassString
	case tok.Type.InSubCategory(chroma.LiteralNumber):
		return ClassNumber
	case tok.Type.InCategory(chroma.Comment):
		return ClassComment
	case tok.Type == chroma.NameBuiltin, tok.Type == chroma.NameFunction:
		return ClassFunction
	}
	return ""
}

func isLiteral(t chroma.TokenType) bool {
	return t.InCategory(chroma.Literal) || t.InCategory(chroma.Comment)
}

func writeOverrides(b *strings.Builder, ov override, value string) {
	last := 0
	for _, m := range ov.re.FindAllStringIndex(value, -1) {
		b.WriteString(Escape(value[last:m[0]]))
		word := value[m[0]:m[1]]
		class, ok := ov.classes[word]
		if !ok {
			class = ClassKeyword
		}
		writeToken(b, class, word)
		last = m[1]
	}
	b.WriteString(Escape(value[last:]))
}

func writeToken(b *strings.Builder, class, value string) {
	if class == "" {
		b.WriteString(Escape(value))
		return
	}
	b.WriteString(`<span class="token `)
	b.WriteString(class)
	b.WriteString(`">`)
	b.WriteString(Escape(value))
	b.WriteString(`</span>`)
}

// trimAddedNewline drops the trailing newline some lexers append.
func trimAddedNewline(tokens []chroma.Token, code string) {
	if strings.HasSuffix(code, "\n") {
		return
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Value == "" {
			continue
		}
		tokens[i].Value = strings.TrimSuffix(tokens[i].Value, "\n")
		return
	}
}
