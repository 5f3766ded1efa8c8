package fetch

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// ListIndex fetches an HTML directory index and returns the set of entry
// names whose href matches pattern. Sources whose exact filenames cannot be
// derived from the cycle arithmetic (radar composites carry a minute stamp)
// are discovered this way; the coordinator treats planned artifacts absent
// from the listing as not yet published without issuing a GET. Protected
// indexes get the same credentials as the artifacts behind them.
func ListIndex(ctx context.Context, client *http.Client, url string, pattern *regexp.Regexp, creds *Credentials) (map[string]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create listing request: %w", err)
	}
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", url, err)
	}

	entries := make(map[string]bool)
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if pattern == nil || pattern.MatchString(href) {
			entries[path.Base(href)] = true
		}
	})
	return entries, nil
}
