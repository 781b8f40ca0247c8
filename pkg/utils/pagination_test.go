package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func parsePaginationForTest(t *testing.T, query string) PaginationParams {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(ParsePagination(c))
	})

	path := "/"
	if query != "" {
		path = fmt.Sprintf("/?%s", query)
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("pagination request failed for query %q: %v", query, err)
	}
	defer resp.Body.Close()

	var parsed PaginationParams
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("failed to decode pagination response for query %q: %v", query, err)
	}

	return parsed
}

func TestParsePagination(t *testing.T) {
	testCases := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"explicit values", "page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"page below one", "page=0", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"limit below one", "limit=-5", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
		{"limit capped", "limit=500", PaginationParams{Page: 1, Limit: 100, Offset: 0}},
		{"non numeric", "page=abc&limit=xyz", PaginationParams{Page: 1, Limit: 20, Offset: 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := parsePaginationForTest(t, tc.query)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
