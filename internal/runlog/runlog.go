// Package runlog keeps a dated JSON file of the postings each run found new.
package runlog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go-careerwatch/internal/scraper"
)

// Entry is one posting with the run that reported it.
type Entry struct {
	RunID string `json:"run_id"`
	scraper.Posting
}

// FileName is new-postings-YYYY-MM-DD.json for the day of t.
func FileName(t time.Time) string {
	return fmt.Sprintf("new-postings-%s.json", t.Format("2006-01-02"))
}

// Append adds postings to the file of the day. Runs on the same day share a file.
func Append(dir, runID string, now time.Time, postings []scraper.Posting) (string, error) {
	if len(postings) == 0 {
		log.Println("ℹ️ No new postings to log.")
		return "", nil
	}

	//create logs directory if not exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create run log dir: %w", err)
	}

	filePath := filepath.Join(dir, FileName(now))

	var entries []Entry
	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &entries); err != nil {
			return "", fmt.Errorf("read run log %s: %w", filePath, err)
		}
	case !os.IsNotExist(err):
		return "", fmt.Errorf("read run log %s: %w", filePath, err)
	}

	for _, p := range postings {
		entries = append(entries, Entry{RunID: runID, Posting: p})
	}

	data, err = json.MarshalIndent(entries, "", " ")
	if err != nil {
		return "", fmt.Errorf("marshal run log: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("write run log: %w", err)
	}

	log.Printf("📁 New postings saved to %s", filePath)
	return filePath, nil
}
