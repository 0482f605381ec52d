package amazon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"go-careerwatch/internal/filter"
	"go-careerwatch/internal/scraper"
)

const maxFieldRunes = 100

var (
	idKeys       = []string{"id_icims", "idIcims", "requisitionId", "requisition_id", "jobId", "job_id", "postingId", "posting_id", "id"}
	titleKeys    = []string{"title", "jobTitle", "job_title", "name", "positionTitle"}
	locationKeys = []string{"location", "normalized_location", "primaryLocation", "primary_location"}
	listKeys     = []string{"jobs", "results", "positions"}
	wrapperKeys  = []string{"search_results", "searchResults", "data"}
)

// ExtractPositions finds the list of raw positions in a search response.
// A response of an unknown shape yields no positions, not an error.
func ExtractPositions(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	root, ok := data.(map[string]any)
	if !ok {
		return nil, nil
	}

	if list, ok := firstList(root); ok {
		return objects(list), nil
	}

	for _, key := range wrapperKeys {
		if inner, ok := root[key].(map[string]any); ok {
			if list, ok := firstList(inner); ok {
				return objects(list), nil
			}
		}
	}

	if hits, ok := root["hits"].(map[string]any); ok {
		if list, ok := hits["hits"].([]any); ok {
			var out []map[string]any
			for _, h := range objects(list) {
				if src, ok := h["_source"].(map[string]any); ok {
					out = append(out, src)
				}
			}
			return out, nil
		}
	}

	return nil, nil
}

func firstList(m map[string]any) ([]any, bool) {
	for _, key := range listKeys {
		if list, ok := m[key].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// NormalizePosition coerces one raw position into a Posting.
// ok is false when the position has no usable identifier.
func NormalizePosition(pos map[string]any, now time.Time) (scraper.Posting, bool) {
	id := first(pos, idKeys...)
	if id == "" {
		return scraper.Posting{}, false
	}

	title := truncate(first(pos, titleKeys...), maxFieldRunes)
	if title == "" {
		title = "Unknown Position"
	}

	var rawLoc any
	for _, key := range locationKeys {
		if v, ok := pos[key]; ok && truthy(v) {
			rawLoc = v
			break
		}
	}
	location := truncate(normalizeLocation(rawLoc), maxFieldRunes)
	if location == "" {
		location = "N/A"
	}

	return scraper.Posting{
		ID:       "amazon:" + id,
		Title:    title,
		Location: location,
		URL:      link(pos, id),
		Company:  companyName,
		FoundAt:  now,
	}, true
}

func link(pos map[string]any, id string) string {
	if path := first(pos, "job_path", "jobPath"); path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return siteURL + path
	}
	l := first(pos, "url", "jobDetailUrl", "job_detail_url")
	if strings.HasPrefix(l, "/") {
		l = siteURL + l
	}
	if l == "" {
		l = fmt.Sprintf("%s/en/jobs/%s", siteURL, id)
	}
	return l
}

// normalizeLocation accepts a string, an object or a list of either.
func normalizeLocation(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		return first(v, "name", "location", "value")
	case []any:
		var parts []string
		for i, item := range v {
			if i == 2 {
				break
			}
			if p := normalizeLocation(item); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(asString(v))
	}
}

// ParsePayloads normalizes every payload, folds repeated IDs, validates and
// applies the role filter.
func ParsePayloads(payloads [][]byte, role string, now time.Time) []scraper.Posting {
	var postings []scraper.Posting
	seen := make(map[string]bool)
	for _, body := range payloads {
		positions, err := ExtractPositions(body)
		if err != nil {
			log.Printf("⚠️ Skipping unreadable payload: %v", err)
			continue
		}
		for _, pos := range positions {
			p, ok := NormalizePosition(pos, now)
			if !ok || seen[p.ID] {
				continue
			}
			p, err := scraper.Validate(p)
			if err != nil {
				log.Printf("⚠️ Skipping malformed position: %v", err)
				continue
			}
			seen[p.ID] = true
			if !filter.MatchesRole(p.Title, role) {
				continue
			}
			postings = append(postings, p)
		}
	}
	return postings
}

func first(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(asString(m[key])); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case bool:
		return t
	case json.Number:
		return t.String() != "0"
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
