package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/BearBump/GLExpress/config"
	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/cache/rediscache"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/BearBump/GLExpress/internal/storage/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func memFactories(st *memstore.Store, closed *bool) workerFactories {
	return workerFactories{
		newStorage: func(context.Context, *config.Config) (progression.Store, func(), error) {
			return st, func() { *closed = true }, nil
		},
		newCache: func(*config.Config) (cache.BytesCache, func()) { return nil, nil },
	}
}

func TestDefaultWorkerFactories_Cache(t *testing.T) {
	f := defaultWorkerFactories()

	c, closeFn := f.newCache(&config.Config{})
	require.Nil(t, c)
	require.Nil(t, closeFn)

	mr := miniredis.RunT(t)
	c, closeFn = f.newCache(&config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)}})
	require.NotNil(t, closeFn)
	defer closeFn()
	_, ok := c.(*rediscache.RedisCache)
	require.True(t, ok)
}

func TestDefaultWorkerFactories_MemoryStorage(t *testing.T) {
	f := defaultWorkerFactories()
	st, closeFn, err := f.newStorage(context.Background(), &config.Config{Database: config.DatabaseConfig{Driver: "memory"}})
	require.NoError(t, err)
	require.NotNil(t, st)
	closeFn()
}

func TestRunWorker_ContextCanceled(t *testing.T) {
	closed := false
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunWorker(ctx, &config.Config{}, memFactories(memstore.New(), &closed), workerHTTPOpts{httpAddr: "127.0.0.1:0"})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, closed)
}

func TestRunWorker_BadSchedule(t *testing.T) {
	closed := false
	cfg := &config.Config{GLExpress: config.GLExpressConfig{ProgressionSchedule: "whenever"}}

	err := RunWorker(context.Background(), cfg, memFactories(memstore.New(), &closed), workerHTTPOpts{httpAddr: "127.0.0.1:0"})
	require.Error(t, err)
	require.True(t, closed)
}

func TestRunWorker_TriggerAdvancesPackages(t *testing.T) {
	st := memstore.New()
	old := time.Now().UTC().Add(-3 * time.Hour)
	_, err := st.CreatePackage(context.Background(), models.PackageCreateInput{
		ID: "p1", TrackingNumber: "GL1", RecipientName: "R", RecipientAddress: "A",
		CurrentStatus: models.StatusRegistered, CreatedAt: old,
	}, &models.StatusHistoryEntry{Status: models.StatusRegistered, CreatedAt: old})
	require.NoError(t, err)

	dir := t.TempDir()
	sw := filepath.Join(dir, "worker.swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	closed := false
	cfg := &config.Config{GLExpress: config.GLExpressConfig{ProgressionSchedule: "@every 1h"}}
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunWorker(ctx, cfg, memFactories(st, &closed), workerHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			onListen:    func(addr string) { addrCh <- addr },
		})
	}()
	base := "http://" + <-addrCh

	resp, err := http.Get(base + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(base+"/trigger", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// registered -> ready_for_pickup после 2h по конфигам по умолчанию
	require.Eventually(t, func() bool {
		p, err := st.GetPackageByID(context.Background(), "p1")
		return err == nil && p.CurrentStatus == models.StatusReadyForPickup
	}, 3*time.Second, 20*time.Millisecond)

	var stats progression.Stats
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/stats")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&stats) == nil && stats.TotalRuns == 1
	}, 3*time.Second, 20*time.Millisecond)
	require.Equal(t, "@every 1h", stats.Schedule)
	require.EqualValues(t, 1, stats.TotalAdvanced)

	resp, err = http.Get(base + "/swagger.json")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop")
	}
	require.True(t, closed)
}

func TestWorkerRouter_NotWired(t *testing.T) {
	h := workerRouter(workerHTTPOpts{})

	for _, path := range []string{"/stats", "/config"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Contains(t, rec.Body.String(), "not wired")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWorkerRouter_Readyz(t *testing.T) {
	h := workerRouter(workerHTTPOpts{ready: func(context.Context) error { return errors.New("db down") }})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "db down")

	rec = httptest.NewRecorder()
	workerRouter(workerHTTPOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkerRouter_ConfigHidesSecrets(t *testing.T) {
	cfg := &config.Config{
		Database:  config.DatabaseConfig{Driver: "postgres", Password: "hunter2"},
		GLExpress: config.GLExpressConfig{ProgressionConcurrency: 4, AdminToken: "tok", ProgressionSchedule: "@every 5m"},
	}
	rec := httptest.NewRecorder()
	workerRouter(workerHTTPOpts{cfg: cfg}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	body := rec.Body.String()
	require.Contains(t, body, `"concurrency":4`)
	require.Contains(t, body, "@every 5m")
	require.NotContains(t, body, "hunter2")
	require.NotContains(t, body, "tok")
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
