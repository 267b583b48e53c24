package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mentathq/mentat/internal/errors"
)

func TestParse_PostWithSingleQuotes(t *testing.T) {
	p := New()

	res, err := p.Parse("post a tweet saying 'Hello World'")
	require.NoError(t, err)

	assert.Equal(t, "twitter", res.Workflow)
	assert.Equal(t, "post", res.Command)
	assert.Equal(t, map[string]string{"content": "Hello World"}, res.Params)
}

func TestParse_PostWithDoubleQuotes(t *testing.T) {
	p := New()

	res, err := p.Parse(`Tweet "Shipping v1.0 today!"`)
	require.NoError(t, err)

	assert.Equal(t, "post", res.Command)
	assert.Equal(t, "Shipping v1.0 today!", res.Params["content"])
}

func TestParse_PostExtractsFirstQuotedSpan(t *testing.T) {
	p := New()

	res, err := p.Parse(`post a tweet saying 'first' and also 'second'`)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Params["content"])
}

func TestParse_PostPhraseFallback(t *testing.T) {
	p := New()

	res, err := p.Parse("send a tweet saying hello from the command line")
	require.NoError(t, err)

	assert.Equal(t, "post", res.Command)
	assert.Equal(t, "hello from the command line", res.Params["content"])
}

func TestParse_PostWithoutPayload(t *testing.T) {
	p := New()

	_, err := p.Parse("send a tweet")
	require.Error(t, err)
	assert.True(t, errs.IsContentNotExtracted(err))

	pe, ok := errs.AsParseError(err)
	require.True(t, ok)
	assert.Equal(t, "send a tweet", pe.Input)
}

func TestParse_Mentions(t *testing.T) {
	p := New()

	res, err := p.Parse("Check my recent mentions")
	require.NoError(t, err)

	assert.Equal(t, "twitter", res.Workflow)
	assert.Equal(t, "mentions", res.Command)
	assert.Empty(t, res.Params)
}

func TestParse_MentionsVariants(t *testing.T) {
	p := New()

	for _, cmd := range []string{
		"show mentions",
		"view mentions please",
		"get mentions",
		"check mentions",
	} {
		res, err := p.Parse(cmd)
		require.NoError(t, err, "command %q", cmd)
		assert.Equal(t, "mentions", res.Command, "command %q", cmd)
	}
}

func TestParse_ReplyWithMentionID(t *testing.T) {
	p := New()

	res, err := p.Parse("reply to mention id 12345")
	require.NoError(t, err)

	assert.Equal(t, "twitter", res.Workflow)
	assert.Equal(t, "reply", res.Command)
	assert.Equal(t, map[string]string{"mention_id": "12345"}, res.Params)
}

func TestParse_ReplyWithoutID(t *testing.T) {
	p := New()

	res, err := p.Parse("reply to my latest mention")
	require.NoError(t, err)

	assert.Equal(t, "reply", res.Command)
	assert.NotContains(t, res.Params, "mention_id")
}

func TestParse_ReplyBeatsPostKeywords(t *testing.T) {
	p := New()

	// "tweet" is present but the reply rule is evaluated first.
	res, err := p.Parse("reply to the tweet mention id 99")
	require.NoError(t, err)
	assert.Equal(t, "reply", res.Command)
}

func TestParse_MentionsBeatReply(t *testing.T) {
	p := New()

	res, err := p.Parse("show mentions I should reply to")
	require.NoError(t, err)
	assert.Equal(t, "mentions", res.Command)
}

func TestParse_Unrecognized(t *testing.T) {
	p := New()

	_, err := p.Parse("order me a pizza")
	require.Error(t, err)
	assert.True(t, errs.IsCommandNotRecognized(err))
	assert.True(t, errs.IsParseError(err))
}

func TestParse_KeywordWithoutAction(t *testing.T) {
	p := New()

	// Workflow keyword present, but no rule matches.
	_, err := p.Parse("twitter is down again")
	require.Error(t, err)
	assert.True(t, errs.IsCommandNotRecognized(err))
}

func TestParse_CaseInsensitiveMatching(t *testing.T) {
	p := New()

	res, err := p.Parse("POST A TWEET SAYING 'Loud and clear'")
	require.NoError(t, err)
	assert.Equal(t, "post", res.Command)
	assert.Equal(t, "Loud and clear", res.Params["content"])
}

func TestParse_NoSideEffects(t *testing.T) {
	p := New()

	first, err := p.Parse("tweet 'one'")
	require.NoError(t, err)
	second, err := p.Parse("tweet 'one'")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCommandHelp(t *testing.T) {
	p := New()

	help := p.CommandHelp()
	assert.Contains(t, help, "Post a Tweet")
	assert.Contains(t, help, "quotes")
}
