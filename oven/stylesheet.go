package oven

import (
	"log/slog"
	"strings"
)

// parseStylesheet reads the top-level grammar the dialect supports (§4.2,
// §6): `@namespace prefix "uri";` at-rules and qualified rules (selector
// list + declaration block). It mirrors cnxeasybake's scripts/main.py
// driving loop in spirit (read rule by rule, log and skip on error) but
// works directly off this package's own tokenizer rather than tinycss2's
// parse_stylesheet, since selector/at-rule splitting in CSS requires
// brace/paren-depth tracking that a flat token stream doesn't give for
// free.
func parseStylesheet(logger *slog.Logger, src string) (*ruleStore, map[string]string, error) {
	store := newRuleStore()
	namespaces := make(map[string]string)

	line, col := 1, 1
	i := 0
	runes := []rune(src)
	advance := func(r rune) {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	skipWS := func() {
		for i < len(runes) {
			r := runes[i]
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
				advance(r)
				i++
				continue
			}
			if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
				advance(r)
				i++
				advance(runes[i])
				i++
				for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
					advance(runes[i])
					i++
				}
				if i+1 < len(runes) {
					advance(runes[i])
					i++
					advance(runes[i])
					i++
				}
				continue
			}
			break
		}
	}

	for {
		skipWS()
		if i >= len(runes) {
			break
		}
		startLine, startCol := line, col

		if runes[i] == '@' {
			end := indexRune(runes, i, ';')
			if end < 0 {
				end = len(runes)
			}
			atText := string(runes[i : end+1])
			if err := parseNamespaceAtRule(logger, atText, namespaces, Span{startLine, startCol}); err != nil {
				logger.Warn("invalid at-rule, skipping", slog.String("error", err.Error()))
			}
			for i <= end && i < len(runes) {
				advance(runes[i])
				i++
			}
			continue
		}

		braceIdx := indexRune(runes, i, '{')
		if braceIdx < 0 {
			break
		}
		preludeSrc := string(runes[i:braceIdx])

		depth := 1
		j := braceIdx + 1
		for j < len(runes) && depth > 0 {
			switch runes[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			j++
		}
		blockSrc := string(runes[braceIdx+1 : j-1])

		for k := i; k < j && k < len(runes); k++ {
			advance(runes[k])
		}
		i = j

		addQualifiedRule(logger, store, preludeSrc, blockSrc, startLine, startCol)
	}

	store.resolvePassOrder()
	return store, namespaces, nil
}

func indexRune(runes []rune, from int, target rune) int {
	for k := from; k < len(runes); k++ {
		if runes[k] == target {
			return k
		}
	}
	return -1
}

// parseNamespaceAtRule handles `@namespace prefix "uri";`, the only
// supported at-rule (§3, §6 "Stylesheet dialect"); a default (prefixless)
// namespace is rejected with a warning, matching the spec's explicit call.
func parseNamespaceAtRule(logger *slog.Logger, src string, namespaces map[string]string, span Span) error {
	toks := tokenize(strings.TrimSuffix(strings.TrimSpace(src), ";"))
	p := newParser(toks)
	kw, err := p.next()
	if err != nil || kw.kind != tokAtKeyword || kw.value != "namespace" {
		return newParseError(span, "unsupported at-rule")
	}
	p.skipSpace()
	if p.isDone() {
		return newParseError(span, "@namespace requires a prefix and URI")
	}
	if p.cur().kind == tokString {
		logger.Warn("default @namespace is unsupported, skipping")
		return nil
	}
	prefix, err := p.ident()
	if err != nil {
		return err
	}
	p.skipSpace()
	uriTok, err := p.next()
	if err != nil || uriTok.kind != tokString {
		return newParseError(span, "expected namespace URI string")
	}
	namespaces[prefix] = uriTok.value
	return nil
}

func addQualifiedRule(logger *slog.Logger, store *ruleStore, preludeSrc, blockSrc string, line, col int) {
	decls := parseDeclarations(blockSrc)
	for _, selSrc := range splitTopLevelCommas(preludeSrc) {
		if strings.TrimSpace(selSrc) == "" {
			continue
		}
		sel, err := compileSelector(selSrc, Span{line, col})
		if err != nil {
			logger.Warn("invalid selector, skipping rule", slog.String("error", err.Error()))
			continue
		}
		passes := sel.Passes
		if len(passes) == 0 {
			passes = []string{"default"}
		}
		store.add(&rule{
			selector: sel,
			decls:    decls,
			passes:   passes,
			label:    sel.Label,
			deferred: sel.Deferred,
			line:     line,
		})
	}
}

// splitTopLevelCommas splits a selector list on commas that aren't nested
// inside a `:pass(...)`/attribute-selector parenthesis or bracket.
func splitTopLevelCommas(src string) []string {
	var parts []string
	depthParen, depthBracket := 0, 0
	start := 0
	runes := []rune(src)
	for i, r := range runes {
		switch r {
		case '(':
			depthParen++
		case ')':
			depthParen--
		case '[':
			depthBracket++
		case ']':
			depthBracket--
		case ',':
			if depthParen == 0 && depthBracket == 0 {
				parts = append(parts, string(runes[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

// parseDeclarations splits a block body on top-level semicolons, then each
// declaration on its first colon, tokenizing the value side for later
// on-demand evaluation by functions.go/handlers.go (§4.1, §4.7).
func parseDeclarations(src string) []declaration {
	var decls []declaration
	line, col := 1, 1
	for _, stmt := range splitTopLevelSemicolons(src) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		colon := strings.IndexByte(stmt, ':')
		if colon < 0 {
			continue
		}
		prop := strings.TrimSpace(stmt[:colon])
		valSrc := stmt[colon+1:]
		decls = append(decls, declaration{
			property: prop,
			value:    tokenize(valSrc),
			span:     Span{line, col},
		})
	}
	return decls
}

func splitTopLevelSemicolons(src string) []string {
	var parts []string
	depthParen := 0
	start := 0
	runes := []rune(src)
	for i, r := range runes {
		switch r {
		case '(':
			depthParen++
		case ')':
			depthParen--
		case ';':
			if depthParen == 0 {
				parts = append(parts, string(runes[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}
