package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/kevinaaaquil/bookworm/logging"
	"github.com/kevinaaaquil/bookworm/models"
	"github.com/kevinaaaquil/bookworm/utils"
	gobreaker "github.com/sony/gobreaker/v2"
)

const googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// ErrNoVolume means the lookup succeeded but nothing matched the ISBN.
var ErrNoVolume = errors.New("no volume found")

var ErrInvalidISBN = errors.New("invalid isbn")

type googleBooksVolumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Description         string   `json:"description"`
			Categories          []string `json:"categories"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// MetadataClient prefills book fields from Google Books. Calls go through a
// circuit breaker so a failing upstream is not hammered from the admin form.
type MetadataClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*models.Book]
}

func NewMetadataClient(baseURL string) *MetadataClient {
	if baseURL == "" {
		baseURL = googleBooksBase
	}
	cb := gobreaker.NewCircuitBreaker[*models.Book](gobreaker.Settings{
		Name:        "google-books",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoVolume)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return &MetadataClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		cb:      cb,
	}
}

// LookupISBN returns a partially filled book for isbn.
func (c *MetadataClient) LookupISBN(ctx context.Context, isbn string) (*models.Book, error) {
	isbn, ok := utils.NormalizeISBN(isbn)
	if !ok {
		return nil, ErrInvalidISBN
	}
	book, err := c.cb.Execute(func() (*models.Book, error) {
		return c.fetch(ctx, isbn)
	})
	switch {
	case err == nil:
		metadataLookups.WithLabelValues("found").Inc()
	case errors.Is(err, ErrNoVolume):
		metadataLookups.WithLabelValues("missing").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metadataLookups.WithLabelValues("rejected").Inc()
	default:
		metadataLookups.WithLabelValues("error").Inc()
	}
	return book, err
}

func (c *MetadataClient) fetch(ctx context.Context, isbn string) (*models.Book, error) {
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("isbn %s: %w", isbn, ErrNoVolume)
	}
	vi := data.Items[0].VolumeInfo
	book := &models.Book{
		Title:       vi.Title,
		Author:      strings.Join(vi.Authors, ", "),
		Description: strings.TrimSpace(vi.Description),
		ISBN:        isbn,
	}
	if vi.Subtitle != "" {
		book.Title += ": " + vi.Subtitle
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" || id.Type == "ISBN_10" {
			book.ISBN = id.Identifier
			break
		}
	}
	if len(vi.Categories) > 0 {
		book.Genre = vi.Categories[0]
	}
	book.CoverImage = openLibraryCoverURL(book.ISBN, "L")
	return book, nil
}

// openLibraryCoverURL builds a cover URL by ISBN. Size is S, M or L.
func openLibraryCoverURL(isbn, size string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	if clean == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(clean) + "-" + size + ".jpg"
}
