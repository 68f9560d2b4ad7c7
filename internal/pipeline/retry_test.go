package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-segment-report/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{
	MaxAttempts:       3,
	InitialDelay:      time.Millisecond,
	MaxDelay:          5 * time.Millisecond,
	BackoffMultiplier: 2,
}

func TestFetchRemoteRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "A;B\n1;2\n")
	}))
	defer srv.Close()

	resp, err := fetchRemote(context.Background(), srv.URL, fastRetry)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "A;B\n1;2\n", string(body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchRemoteDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fetchRemote(context.Background(), srv.URL, fastRetry)
	assert.ErrorIs(t, err, model.ErrMalformedSource)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRemoteGivesUp(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := fetchRemote(context.Background(), srv.URL, fastRetry)
	assert.ErrorIs(t, err, errRetryable)
	assert.Equal(t, int32(fastRetry.MaxAttempts), hits.Load())
}

func TestIngestRemoteCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "FAIXA;LIMITE\nA;100\nB;200\n")
	}))
	defer srv.Close()

	tbl, err := IngestSource(context.Background(), model.Source{
		Name: "risk_bands", Type: "csv", Path: srv.URL + "/faixas.csv", Delimiter: ";",
	}, model.Schema{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour}, "op", func() error {
		calls++
		cancel()
		return fmt.Errorf("%w: again", errRetryable)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := withRetry(context.Background(), fastRetry, "op", func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, BackoffMultiplier: 2}
	assert.Equal(t, time.Second, backoffDelay(cfg, 1))
	assert.Equal(t, 2*time.Second, backoffDelay(cfg, 2))
	assert.Equal(t, 3*time.Second, backoffDelay(cfg, 3))

	cfg.Jitter = true
	d := backoffDelay(cfg, 2)
	assert.InDelta(t, float64(2*time.Second), float64(d), float64(200*time.Millisecond))
}

func TestNewSessionUsesFetchRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	spec := model.DefaultReportSpec()
	spec.Customers.Path = writeWorkbook(t, "DADOS", [][]interface{}{customerHeader(), customerRecord(retiree, "Até 1 SM")})
	spec.Operations.Path = srv.URL + "/operacoes.csv"
	spec.RiskBands.Path = ""

	retry := fastRetry
	retry.MaxAttempts = 2
	_, err := NewSession(context.Background(), spec, WithFetchRetry(retry))
	assert.ErrorIs(t, err, errRetryable)
	assert.Equal(t, int32(2), hits.Load())
}
