// ABOUTME: Tests for the HTTP authentication pipeline
// ABOUTME: Covers token extraction, every outcome, metrics, and request isolation

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/taskgate/internal/store"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header    string
		wantToken string
		wantMsg   string
	}{
		{"", "", "missing authorization header"},
		{"Basic dXNlcjpwYXNz", "", "invalid authorization header format"},
		{"bearer abc", "", "invalid authorization header format"},
		{"Bearer ", "", "empty token"},
		{"Bearer abc.def.ghi", "abc.def.ghi", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, msg := extractBearerToken(tt.header)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

type pipelineFixture struct {
	codec    *JWTCodec
	store    *store.MockStore
	metrics  *Metrics
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	codec := newTestCodec(t)
	s := store.NewMockStore()
	seedUser(t, s, "u-1", "alice@example.com", "alice", store.RoleUser)
	metrics := NewMetrics(prometheus.NewRegistry())
	return &pipelineFixture{
		codec:    codec,
		store:    s,
		metrics:  metrics,
		pipeline: NewPipeline(codec, NewStoreResolver(s), metrics, nil),
	}
}

func (f *pipelineFixture) count(outcome string) float64 {
	return testutil.ToFloat64(f.metrics.attempts.WithLabelValues(outcome))
}

func TestPipeline_Outcomes(t *testing.T) {
	f := newPipelineFixture(t)

	valid, err := f.codec.Issue("alice@example.com", time.Hour)
	require.NoError(t, err)
	ghost, err := f.codec.Issue("ghost@example.com", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		outcome string
		wantID  string
	}{
		{"no header", "", OutcomeAnonymous, ""},
		{"wrong scheme", "Token " + valid, OutcomeAnonymous, ""},
		{"bad token", "Bearer not-a-token", OutcomeInvalidToken, ""},
		{"unknown subject", "Bearer " + ghost, OutcomeUnknownPrincipal, ""},
		{"valid", "Bearer " + valid, OutcomeAuthenticated, "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.count(tt.outcome)

			var got *Principal
			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				r = f.pipeline.Authenticate(r)
				called = true
				got = FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/task/show/myTasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.True(t, called, "pipeline must never abort the request")
			assert.Equal(t, http.StatusOK, rec.Code)
			if tt.wantID == "" {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantID, got.Identifier)
				assert.Equal(t, []string{"USER"}, got.Authorities)
			}
			assert.Equal(t, before+1, f.count(tt.outcome))
		})
	}
}

type errResolver struct{}

func (errResolver) Resolve(ctx context.Context, subject string) (*Principal, error) {
	return nil, errors.New("connection reset")
}

func TestPipeline_ResolveErrorContinuesAnonymous(t *testing.T) {
	codec := newTestCodec(t)
	metrics := NewMetrics(prometheus.NewRegistry())
	p := NewPipeline(codec, errResolver{}, metrics, nil)

	token, err := codec.Issue("alice@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/task/show/myTasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	out := p.Authenticate(req)
	assert.Nil(t, FromContext(out.Context()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.attempts.WithLabelValues(OutcomeResolveError)))
}

func TestPipeline_NilMetrics(t *testing.T) {
	codec := newTestCodec(t)
	p := NewPipeline(codec, errResolver{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotPanics(t, func() { p.Authenticate(req) })
}

func TestPipeline_ConcurrentRequestsIsolated(t *testing.T) {
	f := newPipelineFixture(t)
	for i := 0; i < 10; i++ {
		seedUser(t, f.store, fmt.Sprintf("user-%d", i), fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("user%d", i), store.RoleUser)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := FromContext(f.pipeline.Authenticate(r).Context()); p != nil {
			_, _ = w.Write([]byte(p.Identifier))
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@example.com", i%10)
			req := httptest.NewRequest(http.MethodGet, "/api/task/show/myTasks", nil)
			if i%3 != 0 {
				token, err := f.codec.Issue(email, time.Hour)
				if !assert.NoError(t, err) {
					return
				}
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if i%3 == 0 {
				assert.Empty(t, rec.Body.String())
			} else {
				assert.Equal(t, email, rec.Body.String())
			}
		}(i)
	}
	wg.Wait()
}
