package main

import (
	"fmt"
	"strconv"
	"strings"

	"budgenet/internal/core"

	"github.com/agnivade/levenshtein"
)

// resolveCategory finds a category by id or by name, ignoring case. When
// nothing matches, the closest name is suggested if it is near enough to be
// a typo.
func resolveCategory(cats []core.Category, input string) (core.Category, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return core.Category{}, core.NewValidationError("category", "category is required")
	}
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		for _, c := range cats {
			if c.ID == id {
				return c, nil
			}
		}
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	for _, c := range cats {
		if core.SameName(c.Name, input) {
			return c, nil
		}
	}
	if best, ok := closestCategory(cats, input); ok {
		return core.Category{}, fmt.Errorf("category %q (did you mean %q?): %w", input, best.Name, core.ErrNotFound)
	}
	return core.Category{}, fmt.Errorf("category %q: %w", input, core.ErrNotFound)
}

func closestCategory(cats []core.Category, input string) (core.Category, bool) {
	needle := strings.ToLower(input)
	var best core.Category
	bestDist := -1
	for _, c := range cats {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(c.Name))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 {
		return core.Category{}, false
	}
	limit := len([]rune(needle)) / 3
	if limit < 2 {
		limit = 2
	}
	return best, bestDist <= limit
}
