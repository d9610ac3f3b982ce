package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu      sync.Mutex
	exists  bool
	created string
	calls   []string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodHead:
		if f.exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.created = string(b)
		f.exists = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestEnsureIndex_CreatesOnce(t *testing.T) {
	fake := &fakeES{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)

	require.NoError(t, EnsureIndex(context.Background(), es, "customers", CustomerIndexMapping))
	require.NoError(t, EnsureIndex(context.Background(), es, "customers", CustomerIndexMapping))

	puts := 0
	for _, c := range fake.calls {
		if c == "PUT /customers" {
			puts++
		}
	}
	assert.Equal(t, 1, puts)
	assert.JSONEq(t, CustomerIndexMapping, fake.created)
}

func TestEnsureIndex_NoClient(t *testing.T) {
	assert.NoError(t, EnsureIndex(context.Background(), nil, "customers", CustomerIndexMapping))
}

func TestNewESClient_NoAddrs(t *testing.T) {
	es, err := NewESClient(nil, "", "")
	assert.NoError(t, err)
	assert.Nil(t, es)
}
