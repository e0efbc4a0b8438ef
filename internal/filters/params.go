package filters

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Range is an inclusive numeric interval; nil bounds are open. Inverted
// bounds are kept as given.
type Range struct {
	Min *float64
	Max *float64
}

type Sort struct {
	Field string
	Desc  bool
}

func (s Sort) Direction() string {
	if s.Desc {
		return "desc"
	}
	return "asc"
}

type Page struct {
	Number  int
	PerPage int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// LastPage is at least 1 so an empty result still reports one page.
func (p Page) LastPage(total int) int {
	if total <= 0 || p.PerPage <= 0 {
		return 1
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// first returns the first non-empty value among keys.
func first(values url.Values, keys ...string) string {
	for _, key := range keys {
		for _, v := range values[key] {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// list collects key, key[] and indexed key[n] values, splitting comma lists,
// trimming and removing duplicates.
func list(values url.Values, key string) []string {
	var raw []string
	raw = append(raw, values[key]...)
	raw = append(raw, values[key+"[]"]...)
	var indexed []int
	for k := range values {
		if strings.HasPrefix(k, key+"[") && strings.HasSuffix(k, "]") {
			if i, err := strconv.Atoi(k[len(key)+1 : len(k)-1]); err == nil {
				indexed = append(indexed, i)
			}
		}
	}
	sort.Ints(indexed)
	for _, i := range indexed {
		raw = append(raw, values[key+"["+strconv.Itoa(i)+"]"]...)
	}

	var out []string
	seen := make(map[string]bool)
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// number parses a finite float; anything else is absent.
func number(values url.Values, key string) *float64 {
	raw := first(values, key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func numberRange(values url.Values, minKey, maxKey string) Range {
	return Range{Min: number(values, minKey), Max: number(values, maxKey)}
}

// flag is true only for the literals 1 and true.
func flag(values url.Values, key string) bool {
	v := first(values, key)
	return v == "1" || v == "true"
}

func date(values url.Values, key string) *time.Time {
	raw := first(values, key)
	if raw == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &d
}

func positiveInt(values url.Values, key string) *int64 {
	raw := first(values, key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func parseSort(values url.Values, allowed map[string]bool, defaults Defaults) Sort {
	field := strings.ToLower(first(values, "sort_by", "sort"))
	if field == "" {
		return defaults.Sort
	}
	if !allowed[field] {
		return Sort{Field: SortCreatedAt, Desc: true}
	}

	desc := true
	if strings.EqualFold(first(values, "sort_order", "order"), "asc") {
		desc = false
	}
	return Sort{Field: field, Desc: desc}
}

func parsePage(values url.Values, defaults Defaults) Page {
	page := Page{Number: 1, PerPage: defaults.PerPage}

	if n, err := strconv.Atoi(first(values, "page")); err == nil && n > 1 {
		page.Number = n
	}
	if page.Number > MaxPage {
		page.Number = MaxPage
	}

	if n, err := strconv.Atoi(first(values, "per_page")); err == nil && n > 0 {
		page.PerPage = n
	}
	if page.PerPage > MaxPerPage {
		page.PerPage = MaxPerPage
	}
	return page
}

func setRange(applied map[string]interface{}, minKey, maxKey string, r Range) {
	if r.Min != nil {
		applied[minKey] = *r.Min
	}
	if r.Max != nil {
		applied[maxKey] = *r.Max
	}
}
