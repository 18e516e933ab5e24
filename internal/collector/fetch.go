package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/wedhazo/nexussentinel/internal/clients"
	"github.com/wedhazo/nexussentinel/internal/clients/kafka_client"
	"github.com/wedhazo/nexussentinel/internal/models"
)

// FinanceSubreddits are the communities searched for watchlist chatter.
var FinanceSubreddits = []string{
	"stocks", "investing", "wallstreetbets", "StockMarket", "options",
	"SecurityAnalysis", "ValueInvesting",
}

const defaultWatchlist = "AAPL,MSFT,TSLA,NVDA,AMZN"

// WatchlistSymbols reads the tickers to track from the environment, falling
// back to a small large-cap default set.
func WatchlistSymbols() []string {
	raw := os.Getenv("WATCHLIST_SYMBOLS")
	if raw == "" {
		raw = defaultWatchlist
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	return symbols
}

// FetchRedditContentForWatchlist searches the finance subreddits for each
// watchlist symbol and publishes the new posts to Kafka.
func FetchRedditContentForWatchlist(ctx context.Context) {
	symbols := WatchlistSymbols()
	if len(symbols) == 0 {
		slog.Warn("[Collector] Watchlist is empty, skipping Reddit fetch")
		return
	}

	subreddits := strings.Join(FinanceSubreddits, "+")

	for _, symbol := range symbols {
		if err := fetchAndProcessSymbol(ctx, subreddits, symbol); err != nil {
			slog.Error("[Collector] Failed processing symbol",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Collector] Finished Reddit fetch for watchlist",
		slog.Int("symbols", len(symbols)))
}

func fetchAndProcessSymbol(ctx context.Context, subreddits, symbol string) error {
	after := ""
	for {
		select {
		case <-ctx.Done():
			slog.Warn("[Collector] Context cancelled, stopping fetch for symbol",
				slog.String("symbol", symbol))
			return ctx.Err()
		default:
		}

		posts, nextAfter, err := fetchWithRetries(ctx, subreddits, symbol, after)
		if err != nil {
			return fmt.Errorf("fetch failed after retries: %w", err)
		}

		processPosts(ctx, symbol, posts)
		if nextAfter == "" {
			break
		}
		after = nextAfter
	}
	return nil
}

func fetchWithRetries(ctx context.Context, subreddits, query, after string) ([]models.RedditPost, string, error) {
	var err error

	for attempt := 1; attempt <= 3; attempt++ {
		var body []byte
		body, err = clients.GetRedditClient().FetchSubredditPosts(ctx, subreddits, query, after)
		if err == nil {
			return parseRedditListing(query, body)
		}

		slog.Warn("[Collector] Retrying Reddit fetch",
			slog.String("query", query),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	return nil, "", err
}

func parseRedditListing(query string, body []byte) ([]models.RedditPost, string, error) {
	var listing models.RedditAPIResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, "", fmt.Errorf("failed to decode Reddit listing: %w", err)
	}

	posts := make([]models.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, models.RedditPost{
			Query:       query,
			Subreddit:   d.Subreddit,
			Author:      d.AuthorFullname,
			PostTitle:   d.Title,
			PostContent: d.Selftext,
			Upvotes:     d.Ups,
			CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
			PostID:      d.ID,
		})
	}
	return posts, listing.Data.After, nil
}

func processPosts(ctx context.Context, symbol string, posts []models.RedditPost) {
	for _, post := range posts {
		select {
		case <-ctx.Done():
			slog.Warn("[Collector] Context cancelled during post processing")
			return
		default:
		}

		dedupeKey := fmt.Sprintf("%s:%s", symbol, post.PostID)

		if post.PostContent == "" || clients.GetValkeyClient().IsContentProcessed(ctx, "reddit", dedupeKey) {
			continue
		}

		rawContent := redditPostToRaw(symbol, post)
		if err := kafka_client.PublishToKafka(ctx, kafka_client.KAFKA_TOPIC_RAW_CONTENT, rawContent.ContentID, rawContent); err != nil {
			slog.Warn("[Collector] Failed to publish to Kafka",
				slog.String("content_id", rawContent.ContentID),
				slog.String("error", err.Error()))
			continue
		}

		if err := clients.GetValkeyClient().MarkProcessed(ctx, "reddit", dedupeKey); err != nil {
			slog.Warn("[Collector] Error marking post as processed",
				slog.String("post_id", post.PostID),
				slog.String("error", err.Error()))
		}
	}
}

func generateContentID(symbol, source, postID string) string {
	raw := fmt.Sprintf("%s:%s:%s", symbol, source, postID)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}

func redditPostToRaw(symbol string, p models.RedditPost) models.RawContent {
	source := "reddit"
	text := p.PostContent
	if p.PostTitle != "" {
		text = p.PostTitle + "\n\n" + p.PostContent
	}
	return models.RawContent{
		ContentID: generateContentID(symbol, source, p.PostID),
		Source:    source,
		Query:     p.Query,
		Topic:     symbol,
		Text:      text,
		Metadata: models.ContentMetadata{
			Author:    p.Author,
			Timestamp: p.CreatedAt,
			Subreddit: p.Subreddit,
			PostID:    p.PostID,
		},
	}
}
