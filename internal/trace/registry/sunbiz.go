package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"ledgertrace/internal/trace/models"
)

// Sunbiz serves server-rendered HTML only, so the client extracts fields
// with targeted expressions. Parsing stays behind the Source interface; a
// structured API client can replace this without touching graph logic.
var (
	sunbizDocLinkRe  = regexp.MustCompile(`/Inquiry/CorporationSearch/ByDocumentNumber\?documentNumber=([^"&]+)`)
	sunbizNameSpanRe = regexp.MustCompile(`<span[^>]*id="MainContent_lblName"[^>]*>([^<]+)</span>`)
	sunbizStatusRe   = regexp.MustCompile(`<span[^>]*id="MainContent_lblStatus"[^>]*>([^<]+)</span>`)
	sunbizTypeRe     = regexp.MustCompile(`<span[^>]*id="MainContent_lblEntityType"[^>]*>([^<]+)</span>`)
	sunbizDateRe     = regexp.MustCompile(`<span[^>]*id="MainContent_lblDateFiled"[^>]*>([^<]+)</span>`)
	sunbizOfficerRe  = regexp.MustCompile(`(?is)<tr[^>]*>.*?<td[^>]*>([^<]*(?:PRESIDENT|SECRETARY|TREASURER|DIRECTOR|MANAGER|MEMBER)[^<]*)</td>.*?<td[^>]*>([^<]+)</td>.*?<td[^>]*>([^<]*)</td>.*?</tr>`)
	queryCleanRe     = regexp.MustCompile(`[^\w\s&.\-]`)
)

// SunbizOptions configures the Sunbiz HTTP client.
type SunbizOptions struct {
	BaseURL          string
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	Logger           *slog.Logger
}

// SunbizClient implements Source against the Florida Division of
// Corporations public search.
type SunbizClient struct {
	httpClient *http.Client
	baseURL    string
	maxBytes   int64
	logger     *slog.Logger
}

// NewSunbizClient builds a Sunbiz-backed registry source.
func NewSunbizClient(opts SunbizOptions) *SunbizClient {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = 1 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SunbizClient{
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		maxBytes:   opts.MaxResponseBytes,
		logger:     opts.Logger,
	}
}

// Search looks up an entity by name and returns the first matching stub.
func (c *SunbizClient) Search(ctx context.Context, query string) (Stub, error) {
	clean := sanitizeQuery(query)
	if clean == "" {
		return Stub{}, fmt.Errorf("%w: empty query after sanitization", ErrNotFound)
	}

	params := url.Values{
		"inquiryType":     {"EntityName"},
		"searchNameOrder": {"A"},
		"searchTerm":      {truncate(strings.ToUpper(clean), 100)},
	}

	body, err := c.get(ctx, "/Inquiry/CorporationSearch/SearchResults", params)
	if err != nil {
		return Stub{}, err
	}

	stub, ok := parseSearchResults(body, clean)
	if !ok {
		return Stub{}, fmt.Errorf("%w: no result for %q", ErrNotFound, clean)
	}
	return stub, nil
}

// FetchDetails retrieves the full entity record for a filing ID.
func (c *SunbizClient) FetchDetails(ctx context.Context, filingID string) (*models.Entity, error) {
	params := url.Values{"documentNumber": {filingID}}
	body, err := c.get(ctx, "/Inquiry/CorporationSearch/ByDocumentNumber", params)
	if err != nil {
		return nil, err
	}
	return parseEntityDetails(body, filingID)
}

// FindByOfficer is unsupported by the public Sunbiz search, which indexes
// entities by name only. Fixture sources implement it fully.
func (c *SunbizClient) FindByOfficer(ctx context.Context, normalizedName string) ([]Stub, error) {
	return nil, fmt.Errorf("%w: sunbiz has no officer index", ErrNotFound)
}

func (c *SunbizClient) get(ctx context.Context, path string, params url.Values) (string, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", "LedgerTrace/1.0 (+https://ledgertrace.com) Compliance Analysis Tool")
	req.Header.Set("Accept", "text/html,application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status 429 from %s", ErrThrottled, path)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d from %s", ErrTransport, resp.StatusCode, path)
	}

	// Oversized payloads are truncated rather than rejected so a bloated
	// page cannot exhaust memory; the parsers work on what arrived.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return string(body), nil
}

func parseSearchResults(html, target string) (Stub, bool) {
	ids := sunbizDocLinkRe.FindAllStringSubmatch(html, -1)
	if len(ids) == 0 {
		return Stub{}, false
	}

	namePattern, err := regexp.Compile(`(?i)<td[^>]*>([^<]*` + regexp.QuoteMeta(truncate(strings.ToUpper(target), 10)) + `[^<]*)</td>`)
	if err != nil {
		return Stub{}, false
	}
	nameMatch := namePattern.FindStringSubmatch(html)
	if nameMatch == nil {
		return Stub{}, false
	}

	return Stub{
		FilingID: ids[0][1],
		Name:     strings.TrimSpace(nameMatch[1]),
	}, true
}

func parseEntityDetails(html, filingID string) (*models.Entity, error) {
	name := firstGroup(sunbizNameSpanRe, html)
	if name == "" {
		return nil, fmt.Errorf("%w: entity name missing for %s", ErrParse, filingID)
	}

	dateFiled := time.Now()
	if raw := firstGroup(sunbizDateRe, html); raw != "" {
		if parsed, err := time.Parse("01/02/2006", raw); err == nil {
			dateFiled = parsed
		}
	}

	var officers []models.Officer
	for _, m := range sunbizOfficerRe.FindAllStringSubmatch(html, -1) {
		title := strings.TrimSpace(m[1])
		officerName := strings.TrimSpace(m[2])
		address := strings.TrimSpace(m[3])
		if officerName == "" || title == "" {
			continue
		}
		officers = append(officers, models.NewOfficer(officerName, title, address))
	}

	return &models.Entity{
		FilingID:   filingID,
		Name:       name,
		Status:     orUnknown(firstGroup(sunbizStatusRe, html)),
		EntityType: orUnknown(firstGroup(sunbizTypeRe, html)),
		DateFiled:  dateFiled,
		Officers:   officers,
	}, nil
}

func firstGroup(re *regexp.Regexp, html string) string {
	if m := re.FindStringSubmatch(html); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func sanitizeQuery(query string) string {
	return truncate(strings.TrimSpace(queryCleanRe.ReplaceAllString(query, "")), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
