// Package query turns raw listing query strings into typed, bounded
// parameters and reports what is wrong with them.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

type SortBy string

const (
	SortFeatured SortBy = "featured"
	SortRating   SortBy = "rating"
	SortJobs     SortBy = "jobs"
	SortNewest   SortBy = "newest"
)

func (s SortBy) IsValid() bool {
	switch s {
	case SortFeatured, SortRating, SortJobs, SortNewest:
		return true
	}

	return false
}

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Params are the listing filters. Empty strings and nil pointers mean "no
// constraint".
type Params struct {
	Category     string
	City         string
	Neighborhood string
	MinRating    *float64
	MinJobs      *int
	Verified     bool
	MostActive   bool
	SortBy       SortBy
	Page         int
	PageIndex    int
	Limit        int
}

func (p Params) Offset() int {
	return p.PageIndex * p.Limit
}

type Parser struct {
	DefaultLimit  int
	MaxLimit      int
	MaxPage       int
	MaxTextLength int
}

func NewParser() Parser {
	return Parser{
		DefaultLimit:  20,
		MaxLimit:      50,
		MaxPage:       1000,
		MaxTextLength: 100,
	}
}

// FromValues keeps the first value of every key.
func FromValues(values url.Values) map[string]string {
	raw := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			raw[k] = v[0]
		}
	}

	return raw
}

// Parse never fails: malformed or out of range values fall back to defaults
// or are dropped.
func (p Parser) Parse(raw map[string]string) Params {
	params := Params{
		Category:     strings.TrimSpace(raw["category"]),
		City:         strings.TrimSpace(raw["city"]),
		Neighborhood: strings.TrimSpace(raw["neighborhood"]),
		Verified:     parseBool(raw["verified"]),
		MostActive:   parseBool(raw["mostActive"]),
		SortBy:       SortFeatured,
		Page:         1,
		Limit:        p.DefaultLimit,
	}

	if v, ok := parseFloat(raw["minRating"]); ok && v >= MinRating && v <= MaxRating {
		params.MinRating = &v
	}

	if v, err := strconv.Atoi(strings.TrimSpace(raw["minJobs"])); err == nil && v >= 0 {
		params.MinJobs = &v
	}

	if s := SortBy(strings.TrimSpace(raw["sortBy"])); s.IsValid() {
		params.SortBy = s
	}

	if v, err := strconv.Atoi(strings.TrimSpace(raw["page"])); err == nil && v >= 1 {
		params.Page = min(v, p.MaxPage)
	}

	if v, err := strconv.Atoi(strings.TrimSpace(raw["limit"])); err == nil && v >= 1 {
		params.Limit = min(v, p.MaxLimit)
	}

	params.PageIndex = params.Page - 1

	return params
}

// Validate returns one message per problem; an empty result means valid.
func (p Parser) Validate(params Params) []string {
	var errs []string

	for _, f := range []struct{ name, value string }{
		{"category", params.Category},
		{"city", params.City},
		{"neighborhood", params.Neighborhood},
	} {
		if utf8.RuneCountInString(f.value) > p.MaxTextLength {
			errs = append(errs, fmt.Sprintf("%s must be at most %d characters", f.name, p.MaxTextLength))
		}
	}

	if params.Page < 1 || params.Page > p.MaxPage {
		errs = append(errs, fmt.Sprintf("page must be between 1 and %d", p.MaxPage))
	}

	if params.Limit < 1 || params.Limit > p.MaxLimit {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and %d", p.MaxLimit))
	}

	if params.MinRating != nil && (*params.MinRating < MinRating || *params.MinRating > MaxRating) {
		errs = append(errs, "minRating must be between 1 and 5")
	}

	if params.MinJobs != nil && *params.MinJobs < 0 {
		errs = append(errs, "minJobs must not be negative")
	}

	if !params.SortBy.IsValid() {
		errs = append(errs, fmt.Sprintf("sortBy must be one of %s, %s, %s, %s", SortFeatured, SortRating, SortJobs, SortNewest))
	}

	return errs
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	}

	return false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}
