// Package parser maps free-text commands to (workflow, command, parameters)
// triples.
//
// This is single-pass keyword classification against a fixed vocabulary, not
// a grammar. Ambiguous phrasing is resolved by rule order: mention checks are
// matched before replies, replies before posts, because reply commands often
// contain post-adjacent words ("tweet me back").
package parser

import (
	"strings"

	errs "github.com/mentathq/mentat/internal/errors"
)

// Result is the transient product of one parse: the owning workflow, the
// command within it and extracted parameters. It is produced and consumed
// within a single dispatch call.
type Result struct {
	Workflow string
	Command  string
	Params   map[string]string
}

// vocabulary binds a workflow name to the keywords that select it and the
// ordered command rules evaluated once the workflow is selected.
type vocabulary struct {
	workflow string
	keywords []string
	rules    []rule
}

// rule selects a command within a workflow. Rules are evaluated in order;
// the first match wins.
type rule struct {
	command string
	phrases []string
	extract func(in input) (map[string]string, error)
}

// input carries the raw command alongside its lowercased form. Matching is
// case-insensitive but extracted payloads keep the user's original casing.
type input struct {
	raw   string
	lower string
}

// mentionTriggers are the phrasings that select the mentions command. They
// are checked before the reply and post rules.
var mentionTriggers = []string{
	"check mention", "recent mention", "show mention", "view mention", "get mention",
}

// contentPhrases is the ordered list of trigger phrases used to locate a
// payload when no quoted span is present.
var contentPhrases = []string{"saying", "tweet", "post", "with content", "with text"}

// Parser classifies natural-language commands. It is pure and synchronous;
// parsing has no side effects.
type Parser struct {
	vocabularies []vocabulary
}

// New creates a parser with the built-in vocabulary.
func New() *Parser {
	return &Parser{
		vocabularies: []vocabulary{
			{
				workflow: "twitter",
				keywords: []string{"tweet", "twitter", "mention"},
				rules: []rule{
					{command: "mentions", phrases: mentionTriggers},
					{
						command: "reply",
						phrases: []string{"reply", "respond"},
						extract: extractMentionID,
					},
					{
						command: "post",
						phrases: []string{"post", "send", "tweet"},
						extract: extractPostContent,
					},
				},
			},
		},
	}
}

// Parse maps a free-text command to (workflow, command, parameters).
//
//	Parse("Post a tweet saying 'Hello World'")
//	  → {Workflow: "twitter", Command: "post", Params: {"content": "Hello World"}}
//
// Returns ErrCommandNotRecognized when no workflow keyword is present and
// ErrContentNotExtracted when a post-type command has no locatable payload.
func (p *Parser) Parse(command string) (Result, error) {
	raw := strings.TrimSpace(command)
	in := input{raw: raw, lower: strings.ToLower(raw)}

	for _, vocab := range p.vocabularies {
		if !containsAny(in.lower, vocab.keywords) {
			continue
		}
		for _, r := range vocab.rules {
			if !containsAny(in.lower, r.phrases) {
				continue
			}
			params := map[string]string{}
			if r.extract != nil {
				extracted, err := r.extract(in)
				if err != nil {
					return Result{}, &errs.ParseError{Input: command, Err: err}
				}
				params = extracted
			}
			return Result{Workflow: vocab.workflow, Command: r.command, Params: params}, nil
		}
	}

	return Result{}, &errs.ParseError{Input: command, Err: errs.ErrCommandNotRecognized}
}

// CommandHelp returns help text for command formatting.
func (p *Parser) CommandHelp() string {
	return `Available Commands:
------------------
1. Post a Tweet:
   - "Post a tweet saying 'your message here'"
   - "Tweet 'your message here'"
   - "Send tweet 'your message here'"
2. Check Mentions:
   - "Check my recent mentions"
3. Reply:
   - "Reply to mention id 12345"

Tips:
- Use quotes (single or double) around your message
- Be specific about the action you want to take`
}

// payload slices the raw command at positions found in its lowercased form.
// Falls back to the lowercased form when lowering changed byte offsets
// (non-ASCII input).
func (in input) payload(start, end int) string {
	if len(in.raw) == len(in.lower) {
		return in.raw[start:end]
	}
	return in.lower[start:end]
}

// extractMentionID pulls the mention id out of a reply command. The id is
// the trailing text after the last "id" token when the phrasing is
// "... to mention ... id ...". A reply without an id is valid; the workflow
// falls back to the latest mention.
func extractMentionID(in input) (map[string]string, error) {
	if !strings.Contains(in.lower, "to mention") || !strings.Contains(in.lower, "id") {
		return map[string]string{}, nil
	}
	idx := strings.LastIndex(in.lower, "id")
	id := strings.TrimSpace(in.payload(idx+len("id"), len(in.lower)))
	if id == "" {
		return map[string]string{}, nil
	}
	return map[string]string{"mention_id": id}, nil
}

// extractPostContent locates the tweet payload: first the text between the
// first matching pair of quotes, then the remainder after the first trigger
// phrase.
func extractPostContent(in input) (map[string]string, error) {
	if content, ok := quotedSpan(in); ok {
		return map[string]string{"content": content}, nil
	}

	for _, phrase := range contentPhrases {
		if idx := strings.Index(in.lower, phrase); idx >= 0 {
			content := strings.TrimSpace(in.payload(idx+len(phrase), len(in.lower)))
			if content != "" {
				return map[string]string{"content": content}, nil
			}
		}
	}

	return nil, errs.ErrContentNotExtracted
}

// quotedSpan returns the text between the first quote character (single or
// double) and the next occurrence of the same character.
func quotedSpan(in input) (string, bool) {
	start := strings.IndexAny(in.lower, `'"`)
	if start < 0 {
		return "", false
	}
	quote := in.lower[start]
	end := strings.IndexByte(in.lower[start+1:], quote)
	if end < 0 {
		return "", false
	}
	return in.payload(start+1, start+1+end), true
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
