package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResultsPage = `
<html><body><table>
<tr><td><a href="/Inquiry/CorporationSearch/ByDocumentNumber?documentNumber=L21000123456">detail</a></td>
<td>SUNSHINE HOLDINGS LLC</td></tr>
</table></body></html>`

const entityDetailPage = `
<html><body>
<span id="MainContent_lblName">SUNSHINE HOLDINGS LLC</span>
<span id="MainContent_lblStatus">ACTIVE</span>
<span id="MainContent_lblEntityType">Florida Limited Liability Company</span>
<span id="MainContent_lblDateFiled">03/15/2021</span>
<table>
<tr><td>MANAGER</td><td>SMITH, JOHN</td><td>123 MAIN ST, OCALA, FL</td></tr>
<tr><td>PRESIDENT</td><td>DOE, JANE</td><td>456 OAK AVE, MIAMI, FL</td></tr>
</table>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *SunbizClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSunbizClient(SunbizOptions{BaseURL: srv.URL})
}

func TestSunbizSearch(t *testing.T) {
	t.Run("finds matching entity", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Inquiry/CorporationSearch/SearchResults", r.URL.Path)
			assert.Equal(t, "EntityName", r.URL.Query().Get("inquiryType"))
			fmt.Fprint(w, searchResultsPage)
		})

		stub, err := client.Search(context.Background(), "Sunshine Holdings LLC")
		require.NoError(t, err)
		assert.Equal(t, "L21000123456", stub.FilingID)
		assert.Equal(t, "SUNSHINE HOLDINGS LLC", stub.Name)
	})

	t.Run("no results is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>no matches</body></html>")
		})

		_, err := client.Search(context.Background(), "Ghost Corp")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("query stripped to nothing is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.Search(context.Background(), "!!! ???")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("429 maps to throttled", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.Search(context.Background(), "Sunshine Holdings")
		assert.ErrorIs(t, err, ErrThrottled)
	})

	t.Run("server error maps to transport", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Search(context.Background(), "Sunshine Holdings")
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("unreachable host maps to transport", func(t *testing.T) {
		client := NewSunbizClient(SunbizOptions{
			BaseURL:        "http://127.0.0.1:1",
			RequestTimeout: 200 * time.Millisecond,
		})

		_, err := client.Search(context.Background(), "Sunshine Holdings")
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestSunbizFetchDetails(t *testing.T) {
	t.Run("parses full entity", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "L21000123456", r.URL.Query().Get("documentNumber"))
			fmt.Fprint(w, entityDetailPage)
		})

		entity, err := client.FetchDetails(context.Background(), "L21000123456")
		require.NoError(t, err)
		assert.Equal(t, "SUNSHINE HOLDINGS LLC", entity.Name)
		assert.Equal(t, "ACTIVE", entity.Status)
		assert.Equal(t, "Florida Limited Liability Company", entity.EntityType)
		assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), entity.DateFiled)

		require.Len(t, entity.Officers, 2)
		assert.Equal(t, "MANAGER", entity.Officers[0].Title)
		assert.Equal(t, "SMITH, JOHN", entity.Officers[0].Name)
		assert.Equal(t, "smith john", entity.Officers[0].NormalizedName)
	})

	t.Run("page without entity name is a parse failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>maintenance window</body></html>")
		})

		_, err := client.FetchDetails(context.Background(), "L21000123456")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("oversized response is truncated not fatal", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, entityDetailPage)
			fmt.Fprint(w, strings.Repeat("x", 4096))
		})
		client.maxBytes = int64(len(entityDetailPage) + 100)

		entity, err := client.FetchDetails(context.Background(), "L21000123456")
		require.NoError(t, err)
		assert.Equal(t, "SUNSHINE HOLDINGS LLC", entity.Name)
	})
}

func TestSunbizFindByOfficer(t *testing.T) {
	client := NewSunbizClient(SunbizOptions{BaseURL: "http://unused"})
	_, err := client.FindByOfficer(context.Background(), "john smith")
	assert.ErrorIs(t, err, ErrNotFound)
}
