// Package twitter implements the Twitter workflow: posting tweets, listing
// mentions and generating replies through the API v2 with OAuth 1.0a
// user-context credentials.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mentathq/mentat/internal/config"
	errs "github.com/mentathq/mentat/internal/errors"
)

// maxTweetLength is Twitter's post length limit.
const maxTweetLength = 280

// mentionsPageSize is how many mentions one listing fetches.
const mentionsPageSize = 10

// environment is the credential management surface the workflow needs.
// Satisfied by *Environment; narrowed for tests.
type environment interface {
	Exists() bool
	Status() Status
	Credentials() Credentials
	Fix(ctx context.Context) error
}

// Workflow posts and manages tweets.
type Workflow struct {
	env environment
	llm Completer
	log *zap.Logger

	// newClient builds an API client from credentials; replaced in tests.
	newClient func(Credentials) Client

	client Client
	me     *User
}

// New creates the Twitter workflow over the given credential store. A nil
// llm disables reply generation and setup hints.
func New(store config.Store, llm Completer, log *zap.Logger, interactive bool) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{
		env:       NewEnvironment(store, llm, log, interactive),
		llm:       llm,
		log:       log,
		newClient: NewClient,
	}
}

// Name returns the registry key.
func (w *Workflow) Name() string { return "twitter" }

// Description returns the listing summary.
func (w *Workflow) Description() string { return "Post and manage tweets" }

// Commands maps supported commands to their descriptions.
func (w *Workflow) Commands() map[string]string {
	return map[string]string{
		"post":     "Post a new tweet",
		"mentions": "View recent mentions of your account",
		"reply":    "Generate and post an AI response to a mention",
	}
}

// ExampleCommands returns example phrasings for help output.
func (w *Workflow) ExampleCommands() []string {
	return []string{
		"Post a tweet saying 'Hello, World!'",
		"Check my recent mentions",
		"Reply to latest mention",
		"Generate response to mention",
	}
}

// ValidateEnvironment reports whether all required credentials are present.
// Presence only; credentials are verified when the client is built.
func (w *Workflow) ValidateEnvironment() bool {
	return w.env.Exists()
}

// Execute runs one parsed command.
func (w *Workflow) Execute(ctx context.Context, command string, params map[string]string) (string, error) {
	switch command {
	case "post":
		content := params["content"]
		if content == "" {
			return "", errs.ErrContentNotExtracted
		}
		return w.run(ctx, func(ctx context.Context, c Client) (string, error) {
			return w.postTweet(ctx, c, content)
		})
	case "mentions":
		return w.run(ctx, w.listMentions)
	case "reply":
		mentionID := params["mention_id"]
		return w.run(ctx, func(ctx context.Context, c Client) (string, error) {
			return w.replyToMention(ctx, c, mentionID)
		})
	default:
		return "", fmt.Errorf("unknown command: %s", command)
	}
}

// run executes one API operation with a single reconfigure-and-retry on
// authentication failures. The retry is a bounded loop; a second failure is
// final.
func (w *Workflow) run(ctx context.Context, fn func(ctx context.Context, c Client) (string, error)) (string, error) {
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := w.ensureClient(ctx)
		if err == nil {
			result, err := fn(ctx, client)
			if err == nil {
				return result, nil
			}
			if !errs.IsUnauthenticated(err) && !errs.IsForbidden(err) {
				return "", err
			}
			// Force a fresh client after reconfiguration.
			w.client = nil
			w.me = nil
			lastErr = err
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}

		w.log.Warn("twitter auth failed, reconfiguring", zap.Error(lastErr))
		if fixErr := w.env.Fix(ctx); fixErr != nil {
			return "", fixErr
		}
	}

	return "", errors.Join(errs.ErrWorkflowExecutionFailed, lastErr)
}

// ensureClient lazily builds the API client and verifies it with a probe
// call. The authenticated user is cached alongside the client.
func (w *Workflow) ensureClient(ctx context.Context) (Client, error) {
	if w.client != nil {
		return w.client, nil
	}

	status := w.env.Status()
	if !status.Complete {
		return nil, &errs.WorkflowError{
			Op:   "init",
			Name: w.Name(),
			Err:  errs.Wrap(errs.ErrEnvironmentNotConfigured, "missing "+strings.Join(status.Missing, ", ")),
		}
	}

	client := w.newClient(w.env.Credentials())

	me, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}

	w.log.Debug("twitter client authenticated", zap.String("username", me.Username))
	w.client = client
	w.me = &me
	return client, nil
}

// postTweet posts content and reports the result.
func (w *Workflow) postTweet(ctx context.Context, c Client, content string) (string, error) {
	if _, err := c.CreateTweet(ctx, content, ""); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully posted tweet: '%s'", content), nil
}

// listMentions fetches and formats recent mentions.
func (w *Workflow) listMentions(ctx context.Context, c Client) (string, error) {
	mentions, err := c.UserMentions(ctx, w.me.ID, mentionsPageSize)
	if err != nil {
		return "", err
	}
	if len(mentions) == 0 {
		return "No recent mentions found.", nil
	}

	var b strings.Builder
	b.WriteString("Recent mentions:\n")
	for _, m := range mentions {
		fmt.Fprintf(&b, "\nID: %s\n", m.ID)
		fmt.Fprintf(&b, "Text: %s\n", m.Text)
		fmt.Fprintf(&b, "Time: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
		b.WriteString(strings.Repeat("-", 40))
	}
	return b.String(), nil
}

// replyToMention generates a reply to the given mention and posts it. An
// empty mentionID targets the latest mention.
func (w *Workflow) replyToMention(ctx context.Context, c Client, mentionID string) (string, error) {
	var mentionText string
	if mentionID == "" {
		mentions, err := c.UserMentions(ctx, w.me.ID, mentionsPageSize)
		if err != nil {
			return "", err
		}
		if len(mentions) == 0 {
			return "No mentions found to reply to.", nil
		}
		mentionID = mentions[0].ID
		mentionText = mentions[0].Text
	} else {
		tweet, err := c.Tweet(ctx, mentionID)
		if err != nil {
			return "", err
		}
		mentionText = tweet.Text
	}

	response, err := w.generateResponse(ctx, mentionText)
	if err != nil {
		return "", err
	}

	if _, err := c.CreateTweet(ctx, response, mentionID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Posted reply: '%s'", response), nil
}

// generateResponse asks the LLM for a reply to the mention, clamped to the
// tweet length limit.
func (w *Workflow) generateResponse(ctx context.Context, mentionText string) (string, error) {
	if w.llm == nil {
		return "", errs.Wrap(errs.ErrLLMUnavailable, "reply generation")
	}

	prompt := fmt.Sprintf(`Generate a friendly and professional response to this tweet:
Tweet: %s

Requirements:
- Keep it under 280 characters
- Be helpful and positive
- Maintain professional tone
- Include relevant emojis if appropriate
- Don't include quotes in the response`, mentionText)

	response, err := w.llm.Completion(ctx, prompt)
	if err != nil {
		return "", err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return "", errs.Wrap(errs.ErrLLMUnavailable, "empty reply")
	}

	return truncateTweet(response), nil
}

// VerifyWritePermissions posts a probe tweet and immediately deletes it.
// Used by the setup flow to catch read-only OAuth configurations before the
// first real post fails.
func VerifyWritePermissions(ctx context.Context, c Client) error {
	probe, err := c.CreateTweet(ctx, "Testing write permissions...", "")
	if err != nil {
		return err
	}
	return c.DeleteTweet(ctx, probe.ID)
}

// truncateTweet clamps text to the tweet length limit, marking the cut.
func truncateTweet(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTweetLength {
		return s
	}
	return string(runes[:maxTweetLength-3]) + "..."
}
