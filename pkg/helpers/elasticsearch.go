package helpers

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// CustomerIndexMapping is the mapping applied when the customer index is created.
const CustomerIndexMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "long"},
      "user":         {"type": "long"},
      "username":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "display_name": {"type": "text"},
      "role":         {"type": "keyword"},
      "user_type":    {"type": "keyword"},
      "phone":        {"type": "keyword"},
      "address":      {"type": "text"},
      "company_name": {"type": "text"},
      "ice":          {"type": "keyword"},
      "is_approved":  {"type": "boolean"},
      "created_at":   {"type": "date"}
    }
  }
}`

// NewESClient creates an Elasticsearch client with optional basic auth.
// It returns nil, nil when no address is configured.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  addrs,
		Username:   username,
		Password:   password,
		MaxRetries: 2,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

// EnsureIndex creates index with mapping unless it already exists.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index, mapping string) error {
	if es == nil || index == "" {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(cctx, es)
	if err != nil {
		return fmt.Errorf("es index exists: %w", err)
	}
	_ = exists.Body.Close()
	switch exists.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("es index exists: %s", exists.Status())
	}

	res, err := esapi.IndicesCreateRequest{Index: index, Body: strings.NewReader(mapping)}.Do(cctx, es)
	if err != nil {
		return fmt.Errorf("es index create: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	// another instance created it first
	if strings.Contains(string(body), "resource_already_exists_exception") {
		return nil
	}
	return fmt.Errorf("es index create: %s", res.Status())
}
