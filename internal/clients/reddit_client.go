package clients

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
)

var (
	redditClientInstance *RedditClient
	redditClientOnce     sync.Once
	redditRateLimitMutex sync.Mutex
)

type RedditClient struct {
	Config *clientcredentials.Config
	Client *http.Client
	mu     *sync.Mutex
}

func GetRedditClient() *RedditClient {
	redditClientOnce.Do(func() {
		oauthConf := &clientcredentials.Config{
			ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			TokenURL:     REDDIT_AUTH_URL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}

		redditClientInstance = &RedditClient{
			Config: oauthConf,
			Client: oauthConf.Client(context.Background()),
			mu:     &sync.Mutex{},
		}
	})

	return redditClientInstance
}

func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Client = rc.Config.Client(context.Background())
}

// FetchSubredditPosts searches the given subreddits for a query, paginated via
// the after cursor. A small delay is serialized across callers to stay under
// Reddit's rate limits.
func (rc *RedditClient) FetchSubredditPosts(ctx context.Context, subreddits, query, after string) ([]byte, error) {
	parsedURL, err := url.Parse(fmt.Sprintf("%s/r/%s/search", REDDIT_API_URL, subreddits))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] Failed to parse URL: %w", err)
	}
	queryParams := parsedURL.Query()
	queryParams.Add("q", query)
	queryParams.Add("sort", "new")
	queryParams.Add("limit", "100")
	queryParams.Add("restrict_sr", "true")
	if after != "" {
		queryParams.Add("after", after)
	}
	parsedURL.RawQuery = queryParams.Encode()

	redditRateLimitMutex.Lock()
	time.Sleep(INITIAL_BACKOFF)
	redditRateLimitMutex.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := rc.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
		rc.RefreshClient()
		return rc.FetchSubredditPosts(ctx, subreddits, query, after)
	case http.StatusTooManyRequests:
		slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff")
		return rc.retryWithBackoff(ctx, subreddits, query, after)
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	}
	return nil, fmt.Errorf("[RedditClient] Unexpected status code %d", resp.StatusCode)
}

func (rc *RedditClient) retryWithBackoff(ctx context.Context, subreddits, query, after string) ([]byte, error) {
	backoff := INITIAL_BACKOFF
	for i := 1; i < MAX_RETRIES; i++ {
		slog.Warn("[RedditClient] Retrying request",
			slog.Int("attempt", i), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}

		data, err := rc.FetchSubredditPosts(ctx, subreddits, query, after)
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("[RedditClient] Max retries reached request failed")
}
