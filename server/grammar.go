package server

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const grammarContextRunes = 20

var (
	doubleSpace = regexp.MustCompile(` {2,}`)
	wordPattern = regexp.MustCompile(`\p{L}+`)
)

type grammarContext struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

type grammarIssue struct {
	Message      string         `json:"message"`
	Offset       int            `json:"offset"`
	Length       int            `json:"length"`
	Replacements []string       `json:"replacements"`
	RuleID       string         `json:"rule_id"`
	Context      grammarContext `json:"context"`
}

// checkGrammar runs a small language independent rule set: whitespace runs
// and immediately repeated words. Offsets and lengths count runes.
func checkGrammar(text string) []grammarIssue {
	issues := []grammarIssue{}
	for _, loc := range doubleSpace.FindAllStringIndex(text, -1) {
		issues = append(issues, newIssue(text, loc[0], loc[1],
			"Possible typo: you repeated a whitespace", "WHITESPACE_RULE", " "))
	}

	words := wordPattern.FindAllStringIndex(text, -1)
	for i := 1; i < len(words); i++ {
		prev, cur := words[i-1], words[i]
		if strings.TrimSpace(text[prev[1]:cur[0]]) != "" {
			continue
		}
		if !strings.EqualFold(text[prev[0]:prev[1]], text[cur[0]:cur[1]]) {
			continue
		}
		issues = append(issues, newIssue(text, prev[0], cur[1],
			"Possible typo: you repeated a word", "WORD_REPEAT_RULE", text[prev[0]:prev[1]]))
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Offset < issues[j].Offset })
	return issues
}

func newIssue(text string, start, end int, msg, rule, replacement string) grammarIssue {
	offset := utf8.RuneCountInString(text[:start])
	length := utf8.RuneCountInString(text[start:end])

	runes := []rune(text)
	from := max(offset-grammarContextRunes, 0)
	to := min(offset+length+grammarContextRunes, len(runes))

	return grammarIssue{
		Message:      msg,
		Offset:       offset,
		Length:       length,
		Replacements: []string{replacement},
		RuleID:       rule,
		Context: grammarContext{
			Text:   string(runes[from:to]),
			Offset: offset - from,
		},
	}
}
