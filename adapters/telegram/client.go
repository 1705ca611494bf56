package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sleepreport/domain/core"
	"sleepreport/domain/journal"
	"sleepreport/ports"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public Bot API endpoint
const DefaultBaseURL = "https://api.telegram.org"

// Config holds bot credentials
type Config struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Timeout  time.Duration
}

// pollGrace is added to the long-poll timeout so the server answers first
const pollGrace = 10 * time.Second

// Client delivers reports and reads check-in replies through the Bot API
type Client struct {
	config Config
	http   *http.Client
	poll   *http.Client // no client timeout; each poll sets its own deadline
}

var (
	_ ports.Deliverer    = (*Client)(nil)
	_ ports.UpdateSource = (*Client)(nil)
)

// NewClient validates credentials
func NewClient(config Config) (*Client, error) {
	config.BotToken = strings.TrimSpace(config.BotToken)
	config.ChatID = strings.TrimSpace(config.ChatID)
	if config.BotToken == "" || config.ChatID == "" {
		return nil, fmt.Errorf("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		poll:   &http.Client{},
	}, nil
}

// SendMessage posts plain text with link previews disabled
func (c *Client) SendMessage(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", c.config.ChatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = c.do(c.http, req, "sendMessage")
	return err
}

// SendPhoto uploads the image at path with a caption
func (c *Client) SendPhoto(ctx context.Context, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("chat_id", c.config.ChatID); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	_, err = c.do(c.http, req, "sendPhoto")
	return err
}

// GetUpdates long-polls for updates with ID >= offset, waiting up to timeout
// for the first one to arrive
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]journal.Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+pollGrace)
	defer cancel()

	query := url.Values{}
	query.Set("offset", strconv.FormatInt(offset, 10))
	query.Set("timeout", strconv.Itoa(int(timeout/time.Second)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getUpdates")+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(c.poll, req, "getUpdates")
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(body, "ok").Bool() {
		return nil, fmt.Errorf("telegram getUpdates returned ok=false")
	}
	return parseUpdates(gjson.GetBytes(body, "result")), nil
}

// parseUpdates keeps updates with an integer ID. Only "message" updates carry
// a Message.
func parseUpdates(result gjson.Result) []journal.Update {
	updates := make([]journal.Update, 0)
	result.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("update_id")
		if id.Type != gjson.Number || id.Float() != float64(id.Int()) {
			return true
		}
		update := journal.Update{ID: id.Int()}
		if msg := item.Get("message"); msg.IsObject() {
			update.Message = parseMessage(msg)
		}
		updates = append(updates, update)
		return true
	})
	return updates
}

func parseMessage(msg gjson.Result) *journal.Message {
	from := msg.Get("from")
	name := strings.TrimSpace(strings.TrimSpace(from.Get("first_name").String()) + " " +
		strings.TrimSpace(from.Get("last_name").String()))

	out := &journal.Message{
		ChatID:       idString(msg.Get("chat.id")),
		FromID:       idString(from.Get("id")),
		FromUsername: from.Get("username").String(),
		FromName:     name,
	}
	if id := msg.Get("message_id"); id.Type == gjson.Number {
		out.MessageID = core.Some(id.Int())
	}
	if text := msg.Get("text"); text.Type == gjson.String {
		out.Text = text.String()
	}
	return out
}

// idString keeps numeric chat and user IDs exact, including large negative
// group IDs
func idString(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return v.Raw
	case gjson.String:
		return v.String()
	}
	return ""
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.config.BaseURL, "/"), c.config.BotToken, method)
}

// maxResponseBytes bounds a Bot API reply; a full getUpdates batch fits
const maxResponseBytes = 4 << 20

func (c *Client) do(client *http.Client, req *http.Request, method string) ([]byte, error) {
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		// the request URL carries the bot token
		return nil, fmt.Errorf("telegram %s failed: %w", method, redact(err, c.config.BotToken))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram %s failed: HTTP %d %s", method, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if ok := gjson.GetBytes(body, "ok"); ok.Exists() && !ok.Bool() {
		return nil, fmt.Errorf("telegram %s rejected: %s", method, gjson.GetBytes(body, "description").String())
	}

	log.Printf("[Telegram] %s ok in %s", method, time.Since(start).Round(time.Millisecond))
	return body, nil
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<token>"))
}
