// boardctl is an operator tool for a running board: it dumps the feed as a
// table and, with an admin token, clears it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type feedResponse struct {
	Messages []struct {
		ID        int64  `json:"id"`
		Content   string `json:"content"`
		Timestamp string `json:"timestamp"`
	} `json:"messages"`
}

func main() {
	_ = godotenv.Load()
	addr := flag.String("addr", "http://localhost:8080", "Board base URL")
	token := flag.String("token", os.Getenv("BOARD_TOKEN"), "Session token (defaults to BOARD_TOKEN)")
	clear := flag.Bool("clear", false, "Clear the whole feed (admin token required)")
	noColor := flag.Bool("no-color", false, "Disable colorized output")
	flag.Parse()

	if *token == "" {
		log.Fatal("A session token is required (flag -token or env BOARD_TOKEN)")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	if *clear {
		resp, err := request(client, http.MethodPost, *addr+"/api/messages/clear", *token)
		if err != nil {
			log.Fatal("Clear failed: ", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			log.Fatalf("Clear refused: %s", resp.Status)
		}
		fmt.Println("All messages have been cleared.")
		return
	}

	resp, err := request(client, http.MethodGet, *addr+"/api/messages", *token)
	if err != nil {
		log.Fatal("Fetch failed: ", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		fmt.Println("Feed unchanged (inside the debounce window), try again shortly.")
		return
	default:
		log.Fatalf("Fetch refused: %s", resp.Status)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		log.Fatal("Malformed response: ", err)
	}

	header := fmt.Sprintf("  ====== %d message(s) ======", len(feed.Messages))
	if !*noColor {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Timestamp", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, m := range feed.Messages {
		table.Append([]string{fmt.Sprintf("%d", m.ID), m.Timestamp, m.Content})
	}
	table.Render()
}

func request(client *http.Client, method, url, token string) (*http.Response, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
