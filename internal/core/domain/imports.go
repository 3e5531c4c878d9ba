package domain

import (
	"regexp"
	"slices"
)

var (
	jsImportPattern = regexp.MustCompile(`\bimport(?:\s*[\w$*{}\s,]*?\s*\bfrom)?\s*["']([^"'\n]+)["'][ \t]*;?`)
	jsExportPattern = regexp.MustCompile(`\bexport\s*[\w$*{}\s,]+?\s*\bfrom\s*["']([^"'\n]+)["'][ \t]*;?`)
	cssPattern      = regexp.MustCompile(`@import\s*(?:url\(\s*)?["']([^"'\n]+)["']\s*\)?[ \t]*;?`)
	htmlLinkPattern = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	htmlRelPattern  = regexp.MustCompile(`(?i)\brel\s*=\s*["']import["']`)
	htmlHrefPattern = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']+)["']`)
	jsonPattern     = regexp.MustCompile(`"\$import"\s*:\s*"([^"\n]+)"`)
)

// ScanImports finds the import references in content using the syntax of kind.
// References are returned in the order they appear.
func ScanImports(kind FileKind, content string) []ImportRef {
	var refs []ImportRef
	switch kind {
	case KindJS:
		refs = append(refs, scanPattern(jsImportPattern, content)...)
		refs = append(refs, scanPattern(jsExportPattern, content)...)
		slices.SortFunc(refs, func(a, b ImportRef) int { return a.Start - b.Start })
	case KindCSS:
		refs = scanPattern(cssPattern, content)
	case KindHTML:
		refs = scanHTML(content)
	case KindJSON:
		refs = scanPattern(jsonPattern, content)
	case KindUnknown:
	}
	return refs
}

func scanPattern(re *regexp.Regexp, content string) []ImportRef {
	matches := re.FindAllStringSubmatchIndex(content, -1)
	refs := make([]ImportRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, ImportRef{
			Spec:      content[m[2]:m[3]],
			Start:     m[0],
			End:       m[1],
			SpecStart: m[2],
			SpecEnd:   m[3],
		})
	}
	return refs
}

func scanHTML(content string) []ImportRef {
	var refs []ImportRef
	for _, tag := range htmlLinkPattern.FindAllStringIndex(content, -1) {
		text := content[tag[0]:tag[1]]
		if !htmlRelPattern.MatchString(text) {
			continue
		}
		href := htmlHrefPattern.FindStringSubmatchIndex(text)
		if href == nil {
			continue
		}
		refs = append(refs, ImportRef{
			Spec:      text[href[2]:href[3]],
			Start:     tag[0],
			End:       tag[1],
			SpecStart: tag[0] + href[2],
			SpecEnd:   tag[0] + href[3],
		})
	}
	return refs
}
