package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// Telegram caps photo captions well below message length.
	captionLimit = 1024

	defaultChunkDelay = 2 * time.Second
	defaultChatDelay  = 5 * time.Second
)

// TelegramPublisher sends digest chunks to one or more chats via the
// Bot API. Delivery is per chat: a failing chat is logged and the rest
// still receive the digest. Publish errors only when every chat failed.
type TelegramPublisher struct {
	token   string
	chatIDs []string
	client  *http.Client

	baseURL    string
	chunkDelay time.Duration
	chatDelay  time.Duration
}

func NewTelegramPublisher(token string, chatIDs []string) *TelegramPublisher {
	return &TelegramPublisher{
		token:      token,
		chatIDs:    chatIDs,
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.telegram.org",
		chunkDelay: defaultChunkDelay,
		chatDelay:  defaultChatDelay,
	}
}

func (p *TelegramPublisher) Publish(ctx context.Context, msg *Message) error {
	if len(msg.Chunks) == 0 {
		return fmt.Errorf("telegram: nothing to publish")
	}

	delivered := 0
	for i, chatID := range p.chatIDs {
		if i > 0 {
			if err := sleep(ctx, p.chatDelay); err != nil {
				return err
			}
		}
		if err := p.sendToChat(ctx, chatID, msg); err != nil {
			log.Printf("WARNING: delivery to chat %s failed: %v", chatID, err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("telegram: delivery failed for all %d chats", len(p.chatIDs))
	}
	log.Printf("Delivered digest to %d/%d chats", delivered, len(p.chatIDs))
	return nil
}

func (p *TelegramPublisher) sendToChat(ctx context.Context, chatID string, msg *Message) error {
	// A single short chunk rides along as the photo caption; otherwise
	// the photo goes first and the chunks follow as plain messages.
	if msg.HeaderImage != "" && len(msg.Chunks) == 1 && len(msg.Chunks[0]) <= captionLimit {
		return p.sendPhoto(ctx, chatID, msg.HeaderImage, msg.Chunks[0])
	}

	if msg.HeaderImage != "" {
		if err := p.sendPhoto(ctx, chatID, msg.HeaderImage, ""); err != nil {
			log.Printf("WARNING: header image for chat %s failed, sending text only: %v", chatID, err)
		} else if err := sleep(ctx, p.chunkDelay); err != nil {
			return err
		}
	}

	for i, chunk := range msg.Chunks {
		if i > 0 {
			if err := sleep(ctx, p.chunkDelay); err != nil {
				return err
			}
		}
		if err := p.sendMessage(ctx, chatID, chunk); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(msg.Chunks), err)
		}
	}
	return nil
}

func (p *TelegramPublisher) sendMessage(ctx context.Context, chatID, text string) error {
	return p.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "MarkdownV2",
		"disable_web_page_preview": true,
	})
}

func (p *TelegramPublisher) sendPhoto(ctx context.Context, chatID, fileID, caption string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   fileID,
	}
	if caption != "" {
		payload["caption"] = caption
		payload["parse_mode"] = "MarkdownV2"
	}
	return p.call(ctx, "sendPhoto", payload)
}

func (p *TelegramPublisher) call(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal %s payload: %w", method, err)
	}

	u := fmt.Sprintf("%s/bot%s/%s", p.baseURL, p.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: %s returned status %d: %s", method, resp.StatusCode, detail)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
