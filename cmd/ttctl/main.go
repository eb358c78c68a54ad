// ttctl is a small operator CLI for the equipment price tracker API.
//
// Usage:
//
//	ttctl get -e rubber [-n "Tenergy 05"]
//	ttctl delete -e rubber -n "Tenergy 05" -s siteA
//	ttctl refresh -e blade
//	ttctl categories
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "get":
		err = get(os.Args[2:])
	case "delete":
		err = deleteCmd(os.Args[2:])
	case "refresh":
		err = refresh(os.Args[2:])
	case "categories":
		err = categories(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ttctl <get|delete|refresh|categories> [flags]")
}

type client struct {
	base   string
	apiKey string
	http   *http.Client
}

func newFlags(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	server := fs.String("server", envOr("TTCTL_SERVER", "http://localhost:8080"), "API server base URL")
	apiKey := fs.String("api-key", os.Getenv("TTCTL_API_KEY"), "API key for mutating commands")
	return fs, server, apiKey
}

func newClient(server, apiKey string) *client {
	return &client{
		base:   strings.TrimRight(server, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 20 * time.Minute},
	}
}

func get(args []string) error {
	fs, server, apiKey := newFlags("get")
	equipmentType := fs.String("e", "", "equipment type (rubber or blade)")
	name := fs.String("n", "", "equipment name to search for")
	fs.Parse(args)

	if *equipmentType == "" {
		return fmt.Errorf("-e is required")
	}

	c := newClient(*server, *apiKey)

	// No name: list all distinct names.
	if *name == "" {
		var names []string
		if err := c.getJSON("/"+*equipmentType+"s", &names); err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	// Follow cursors until the last page.
	cursor := ""
	for {
		var page struct {
			Items []struct {
				ID              string `json:"id"`
				Name            string `json:"name"`
				AllTimeLowPrice string `json:"allTimeLowPrice"`
				Entries         []struct {
					URL         string `json:"url"`
					Price       string `json:"price"`
					LastUpdated string `json:"lastUpdated"`
					IsStale     bool   `json:"isStale"`
				} `json:"entries"`
			} `json:"items"`
			Next string `json:"next"`
		}

		path := "/" + *equipmentType + "s?name=" + url.QueryEscape(*name)
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}
		if err := c.getJSON(path, &page); err != nil {
			return err
		}

		for _, item := range page.Items {
			fmt.Printf("%s (all-time low %s)\n", item.Name, item.AllTimeLowPrice)
			for _, e := range item.Entries {
				stale := ""
				if e.IsStale {
					stale = " [stale]"
				}
				fmt.Printf("  %-10s %s%s\n", e.Price, e.URL, stale)
			}
		}

		if page.Next == "" {
			return nil
		}
		cursor = page.Next
	}
}

func deleteCmd(args []string) error {
	fs, server, apiKey := newFlags("delete")
	equipmentType := fs.String("e", "", "equipment type (rubber or blade)")
	name := fs.String("n", "", "equipment name to delete")
	site := fs.String("s", "", "site substring identifying the vendor entry")
	fs.Parse(args)

	if *equipmentType == "" || *name == "" || *site == "" {
		return fmt.Errorf("-e, -n and -s are required")
	}

	fmt.Printf("Are you sure you want to delete the %s %s %q?\n", *site, *equipmentType, *name)
	fmt.Print(`Type "yes" to confirm: `)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "yes" && answer != "y" {
		fmt.Println("Deletion cancelled")
		return nil
	}

	c := newClient(*server, *apiKey)
	body, _ := json.Marshal(map[string]string{"name": *name, "site": *site})
	if err := c.do(http.MethodDelete, "/"+*equipmentType+"s", body, nil); err != nil {
		return err
	}

	fmt.Printf("Deleted the %s %s %q\n", *site, *equipmentType, *name)
	return nil
}

func refresh(args []string) error {
	fs, server, apiKey := newFlags("refresh")
	equipmentType := fs.String("e", "", "equipment type (rubber or blade)")
	fs.Parse(args)

	if *equipmentType == "" {
		return fmt.Errorf("-e is required")
	}

	c := newClient(*server, *apiKey)
	var stats struct {
		RunID    string `json:"runId"`
		Observed int    `json:"observed"`
		Ingested int    `json:"ingested"`
		Failed   int    `json:"failed"`
	}
	if err := c.do(http.MethodPut, "/"+*equipmentType+"s", nil, &stats); err != nil {
		return err
	}

	fmt.Printf("Run %s: observed %d, ingested %d, failed %d\n",
		stats.RunID, stats.Observed, stats.Ingested, stats.Failed)
	return nil
}

func categories(args []string) error {
	fs, server, apiKey := newFlags("categories")
	fs.Parse(args)

	c := newClient(*server, *apiKey)
	var collections []string
	if err := c.getJSON("/equipment", &collections); err != nil {
		return err
	}
	for _, name := range collections {
		fmt.Println(name)
	}
	return nil
}

func (c *client) getJSON(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *client) do(method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
