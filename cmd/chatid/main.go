// Command chatid prints the chat id and the latest photo file id seen by
// a bot, for filling in telegram.chat_ids and telegram.header_image.
// Send the bot a message (or a photo) first, then run:
//
//	chatid <bot-token>
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

type update struct {
	Message struct {
		Chat struct {
			ID    int64  `json:"id"`
			Type  string `json:"type"`
			Title string `json:"title"`
		} `json:"chat"`
		Photo []struct {
			FileID string `json:"file_id"`
			Width  int    `json:"width"`
		} `json:"photo"`
	} `json:"message"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: chatid <bot-token>")
		os.Exit(2)
	}
	token := os.Args[1]

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(fmt.Sprintf("https://api.telegram.org/bot%s/getUpdates", token))
	if err != nil {
		log.Fatalf("getUpdates failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("getUpdates returned status %d (check the token)", resp.StatusCode)
	}

	var payload struct {
		OK     bool     `json:"ok"`
		Result []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Fatalf("failed to parse response: %v", err)
	}
	if !payload.OK || len(payload.Result) == 0 {
		fmt.Println("No updates. Send the bot a message and run again.")
		return
	}

	last := payload.Result[len(payload.Result)-1]
	fmt.Printf("chat id: %d (%s", last.Message.Chat.ID, last.Message.Chat.Type)
	if last.Message.Chat.Title != "" {
		fmt.Printf(", %s", last.Message.Chat.Title)
	}
	fmt.Println(")")

	// Walk back to the most recent photo; Telegram lists sizes
	// smallest first, so take the last entry.
	for i := len(payload.Result) - 1; i >= 0; i-- {
		photos := payload.Result[i].Message.Photo
		if len(photos) > 0 {
			fmt.Printf("photo file id: %s\n", photos[len(photos)-1].FileID)
			return
		}
	}
	fmt.Println("No photo seen yet. Send the bot a photo to get a header image file id.")
}
