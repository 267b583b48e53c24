package twitter

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	errs "github.com/mentathq/mentat/internal/errors"
)

// Credentials is the OAuth 1.0a user-context credential set.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// User is an authenticated account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Tweet is a single tweet as returned by the v2 API.
type Tweet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is the Twitter API surface the workflow depends on.
type Client interface {
	// Me returns the authenticated user.
	Me(ctx context.Context) (User, error)

	// CreateTweet posts a tweet, optionally as a reply.
	CreateTweet(ctx context.Context, text, inReplyTo string) (Tweet, error)

	// DeleteTweet removes a tweet by id.
	DeleteTweet(ctx context.Context, id string) error

	// UserMentions returns recent mentions of the given user, newest first.
	UserMentions(ctx context.Context, userID string, max int) ([]Tweet, error)

	// Tweet fetches a single tweet by id.
	Tweet(ctx context.Context, id string) (Tweet, error)
}

const defaultAPIBase = "https://api.twitter.com"

// apiClient is the HTTP implementation of Client against API v2 with
// OAuth 1.0a request signing.
type apiClient struct {
	creds   Credentials
	baseURL string
	http    *http.Client
}

// NewClient creates a Twitter API v2 client.
func NewClient(creds Credentials) Client {
	return &apiClient{
		creds:   creds,
		baseURL: defaultAPIBase,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Me(ctx context.Context) (User, error) {
	var out struct {
		Data User `json:"data"`
	}
	if err := c.do(ctx, "GET", "/2/users/me", nil, nil, &out); err != nil {
		return User{}, err
	}
	return out.Data, nil
}

func (c *apiClient) CreateTweet(ctx context.Context, text, inReplyTo string) (Tweet, error) {
	body := map[string]any{"text": text}
	if inReplyTo != "" {
		body["reply"] = map[string]string{"in_reply_to_tweet_id": inReplyTo}
	}

	var out struct {
		Data Tweet `json:"data"`
	}
	if err := c.do(ctx, "POST", "/2/tweets", nil, body, &out); err != nil {
		return Tweet{}, err
	}
	if out.Data.ID == "" {
		return Tweet{}, fmt.Errorf("no response data received")
	}
	return out.Data, nil
}

func (c *apiClient) DeleteTweet(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/2/tweets/"+id, nil, nil, nil)
}

func (c *apiClient) UserMentions(ctx context.Context, userID string, max int) ([]Tweet, error) {
	query := url.Values{
		"max_results":  {strconv.Itoa(max)},
		"tweet.fields": {"created_at,author_id,text"},
	}

	var out struct {
		Data []Tweet `json:"data"`
	}
	if err := c.do(ctx, "GET", "/2/users/"+userID+"/mentions", query, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *apiClient) Tweet(ctx context.Context, id string) (Tweet, error) {
	query := url.Values{
		"tweet.fields": {"created_at,author_id,text"},
	}

	var out struct {
		Data Tweet `json:"data"`
	}
	if err := c.do(ctx, "GET", "/2/tweets/"+id, query, nil, &out); err != nil {
		return Tweet{}, err
	}
	if out.Data.ID == "" {
		return Tweet{}, fmt.Errorf("tweet %s not found", id)
	}
	return out.Data, nil
}

// do performs one signed API round-trip, decoding the response into out when
// non-nil. 401 and 403 map to the shared auth sentinels so callers can
// trigger reconfiguration.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	auth, err := c.authorizationHeader(method, c.baseURL+path, query)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errs.Wrap(errs.ErrUnauthenticated, "twitter API")
	case resp.StatusCode == http.StatusForbidden:
		return errs.Wrap(errs.ErrForbidden, "twitter API")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("twitter API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// authorizationHeader builds the OAuth 1.0a header for one request. Only
// query parameters participate in the signature base string; JSON bodies are
// excluded per the v2 signing rules.
func (c *apiClient) authorizationHeader(method, rawURL string, query url.Values) (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}

	oauth := map[string]string{
		"oauth_consumer_key":     c.creds.APIKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(time.Now().Unix(), 10),
		"oauth_token":            c.creds.AccessToken,
		"oauth_version":          "1.0",
	}

	// Collect signature parameters: oauth params plus query params.
	params := make(map[string]string, len(oauth)+len(query))
	for k, v := range oauth {
		params[k] = v
	}
	for k := range query {
		params[k] = query.Get(k)
	}

	base := signatureBase(method, rawURL, params)
	signingKey := percentEncode(c.creds.APISecret) + "&" + percentEncode(c.creds.AccessSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	oauth["oauth_signature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))

	keys := make([]string, 0, len(oauth))
	for k := range oauth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `%s="%s"`, percentEncode(k), percentEncode(oauth[k]))
	}
	return b.String(), nil
}

// signatureBase builds the OAuth signature base string from the method, the
// base URL and the percent-encoded, sorted parameter set.
func signatureBase(method, rawURL string, params map[string]string) string {
	encoded := make([]string, 0, len(params))
	for k, v := range params {
		encoded = append(encoded, percentEncode(k)+"="+percentEncode(v))
	}
	sort.Strings(encoded)

	return strings.ToUpper(method) + "&" +
		percentEncode(rawURL) + "&" +
		percentEncode(strings.Join(encoded, "&"))
}

// percentEncode implements RFC 3986 encoding as OAuth 1.0a requires it;
// url.QueryEscape is not compatible (it encodes spaces as '+').
func percentEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// randomNonce returns a 32-hex-char random nonce.
func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
