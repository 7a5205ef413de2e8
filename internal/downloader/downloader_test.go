package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noBackoff(int) time.Duration { return 0 }

func newTestDownloader(fs afero.Fs, options Options) *Downloader {
	options.Fs = fs
	if options.Backoff == nil {
		options.Backoff = noBackoff
	}
	return New(options)
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFastPathSkipsMatchingFile(t *testing.T) {
	var hits atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	fs := afero.NewMemMapFs()
	body := []byte("library bytes")
	require.NoError(t, afero.WriteFile(fs, "/data/lib.jar", body, 0644))

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL:         server.URL + "/lib.jar",
		Destination: "/data/lib.jar",
		Group:       models.GroupLibraries,
		Sha1:        archive.Sha1Bytes(body),
		Size:        int64(len(body)),
	}})

	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, StatusSkipped, result.Items[0].Status)
	assert.Equal(t, 1, result.Info.CompletedItems)
	assert.Equal(t, int64(len(body)), result.Info.DownloadedBytes)
	assert.True(t, result.OK())
	assert.True(t, result.Info.Finished)
}

func TestFastPathRespectsDisabledSibling(t *testing.T) {
	var hits atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/mods/sodium.jar.disabled", []byte("mod"), 0644))

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL:         server.URL + "/sodium.jar",
		Destination: "/data/mods/sodium.jar",
		Group:       models.GroupMods,
		Size:        3,
	}})

	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, StatusSkipped, result.Items[0].Status)
	exists, _ := afero.Exists(fs, "/data/mods/sodium.jar")
	assert.False(t, exists)
}

func TestRetryTwiceThenSucceed(t *testing.T) {
	body := []byte("third time lucky")
	var calls atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	})
	fs := afero.NewMemMapFs()

	var backoffs []int
	d := newTestDownloader(fs, Options{Backoff: func(attempt int) time.Duration {
		backoffs = append(backoffs, attempt)
		return 0
	}})
	result := d.DownloadFiles(context.Background(), []models.DownloadItem{{
		URL:         server.URL + "/client.jar",
		Destination: "/data/client.jar",
		Group:       models.GroupClient,
		Sha1:        archive.Sha1Bytes(body),
		Size:        int64(len(body)),
	}})

	outcome := result.Items[0]
	assert.Equal(t, StatusCompleted, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{1, 2}, backoffs)
	assert.Equal(t, int64(len(body)), result.Info.DownloadedBytes)
	assert.Equal(t, int64(len(body)), outcome.Bytes)
}

func TestResumeWithRangeDoesNotDoubleCount(t *testing.T) {
	body := bytes.Repeat([]byte("0123456789"), 1000)
	half := len(body) / 2
	var ranges []string
	var mu sync.Mutex
	var calls atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ranges = append(ranges, r.Header.Get("Range"))
		mu.Unlock()
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			_, _ = w.Write(body[:half])
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			panic(http.ErrAbortHandler)
		}
		start, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(r.Header.Get("Range"), "bytes="), "-"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(body)-1, len(body)))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)-start))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(body[start:])
	})
	fs := afero.NewMemMapFs()

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL:         server.URL + "/assets.bin",
		Destination: "/data/assets.bin",
		Group:       models.GroupAssets,
		Sha1:        archive.Sha1Bytes(body),
		Size:        int64(len(body)),
	}})

	require.Equal(t, StatusCompleted, result.Items[0].Status, "%v", result.Items[0].Err)
	assert.Equal(t, 2, result.Items[0].Attempts)
	assert.Equal(t, []string{"", fmt.Sprintf("bytes=%d-", half)}, ranges)
	assert.Equal(t, int64(len(body)), result.Info.DownloadedBytes)

	data, err := afero.ReadFile(fs, "/data/assets.bin")
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestExhaustedRetriesFailWithoutAbortingBatch(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/ok") {
			_, _ = w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	fs := afero.NewMemMapFs()

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: server.URL + "/broken", Destination: "/data/broken", Group: models.GroupLibraries, Size: 10},
		{URL: server.URL + "/ok", Destination: "/data/ok", Group: models.GroupLibraries},
	})

	assert.Equal(t, StatusFailed, result.Items[0].Status)
	assert.Equal(t, 3, result.Items[0].Attempts)
	var statusErr *StatusError
	assert.ErrorAs(t, result.Items[0].Err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, StatusCompleted, result.Items[1].Status)
	assert.Equal(t, 1, result.Info.FailedItems)
	assert.Equal(t, 1, result.Info.CompletedItems)
	assert.Len(t, result.Failed(), 1)
	assert.False(t, result.OK())

	exists, _ := afero.Exists(fs, "/data/broken")
	assert.False(t, exists)
}

func TestIntegrityMismatchIsRetriedThenFails(t *testing.T) {
	var calls atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("tampered"))
	})

	result := newTestDownloader(afero.NewMemMapFs(), Options{MaxAttempts: 2}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL: server.URL + "/x", Destination: "/data/x", Group: models.GroupOther, Sha1: "abc",
	}})

	assert.Equal(t, int32(2), calls.Load())
	var integrity *IntegrityError
	assert.ErrorAs(t, result.Items[0].Err, &integrity)
	assert.Equal(t, int64(0), result.Info.DownloadedBytes)
}

func TestSha256IsVerifiedAndSkipsWhenPresent(t *testing.T) {
	body := []byte("jdk archive")
	var calls atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(body)
	})
	fs := afero.NewMemMapFs()
	item := models.DownloadItem{URL: server.URL + "/jdk.tar.gz", Destination: "/data/jdk.tar.gz", Group: models.GroupJava, Sha256: archive.Sha256Bytes(body)}

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{item})
	require.True(t, result.OK())
	assert.Equal(t, StatusCompleted, result.Items[0].Status)

	result = newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{item})
	assert.Equal(t, StatusSkipped, result.Items[0].Status)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, afero.WriteFile(fs, item.Destination, []byte("same length"), 0644))
	result = newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{item})
	assert.Equal(t, StatusCompleted, result.Items[0].Status, "a stale file is fetched again")
	assert.Equal(t, int32(2), calls.Load())
}

func TestSha256MismatchFails(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	})
	fs := afero.NewMemMapFs()

	result := newTestDownloader(fs, Options{MaxAttempts: 1}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL: server.URL + "/jdk.zip", Destination: "/data/jdk.zip", Group: models.GroupJava,
		Sha256: archive.Sha256Bytes([]byte("genuine")),
		Options: &models.DownloadOptions{Extract: true},
	}})

	var integrity *IntegrityError
	require.ErrorAs(t, result.Items[0].Err, &integrity)
	assert.Equal(t, "sha256", integrity.Algorithm)
	assert.Contains(t, integrity.Error(), "sha256 mismatch")
	exists, _ := afero.Exists(fs, "/data/jdk.zip")
	assert.False(t, exists)
}

func TestGroupsRunSequentially(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(event string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
	}
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		record("start " + name)
		if strings.HasPrefix(name, "a") {
			time.Sleep(50 * time.Millisecond)
		}
		_, _ = w.Write([]byte(name))
		record("end " + name)
	})

	items := []models.DownloadItem{
		{URL: server.URL + "/a1", Destination: "/d/a1", Group: "A"},
		{URL: server.URL + "/b1", Destination: "/d/b1", Group: "B"},
		{URL: server.URL + "/a2", Destination: "/d/a2", Group: "A"},
		{URL: server.URL + "/b2", Destination: "/d/b2", Group: "B"},
	}
	result := newTestDownloader(afero.NewMemMapFs(), Options{}).DownloadFiles(context.Background(), items)
	require.True(t, result.OK())

	lastA, firstB := -1, len(events)
	for index, event := range events {
		if strings.HasSuffix(event, "a1") || strings.HasSuffix(event, "a2") {
			lastA = index
		}
		if strings.HasPrefix(event, "start b") && index < firstB {
			firstB = index
		}
	}
	assert.Less(t, lastA, firstB, "events: %v", events)
	assert.Equal(t, items[1], result.Items[1].Item, "outcomes keep input order")
}

func TestPartitionKeepsDiscoveryOrder(t *testing.T) {
	groups := partition([]models.DownloadItem{
		{Group: "libraries"}, {Group: "manifest"}, {Group: "libraries"}, {Group: "assets"},
	})
	require.Len(t, groups, 3)
	assert.Equal(t, "libraries", groups[0].name)
	assert.Equal(t, []int{0, 2}, groups[0].indexes)
	assert.Equal(t, "manifest", groups[1].name)
	assert.Equal(t, "assets", groups[2].name)
}

func TestConcurrencyIsBounded(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		for {
			previous := peak.Load()
			if current <= previous || peak.CompareAndSwap(previous, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		_, _ = w.Write([]byte("x"))
	})

	items := make([]models.DownloadItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, models.DownloadItem{URL: fmt.Sprintf("%s/%d", server.URL, i), Destination: fmt.Sprintf("/d/%d", i), Group: "assets"})
	}
	result := newTestDownloader(afero.NewMemMapFs(), Options{Limit: 2}).DownloadFiles(context.Background(), items)

	assert.True(t, result.OK())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCancelStopsBatchWithoutFailures(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/after") {
			_, _ = w.Write([]byte("after"))
			return
		}
		started <- struct{}{}
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })

	d := newTestDownloader(afero.NewMemMapFs(), Options{})
	go func() {
		<-started
		<-started
		d.Cancel()
	}()

	result := d.DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: server.URL + "/1", Destination: "/d/1", Group: "libraries"},
		{URL: server.URL + "/2", Destination: "/d/2", Group: "libraries"},
		{URL: server.URL + "/3", Destination: "/d/3", Group: "assets"},
	})

	assert.Equal(t, 0, result.Info.FailedItems)
	assert.Equal(t, 3, result.Info.CancelledItems)
	assert.True(t, result.Cancelled())
	for _, outcome := range result.Items {
		assert.Equal(t, StatusCancelled, outcome.Status)
	}

	again := d.DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: server.URL + "/after", Destination: "/d/after", Group: "libraries"},
	})
	assert.True(t, again.OK(), "a new batch gets a fresh cancellation token")
}

func TestParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestDownloader(afero.NewMemMapFs(), Options{}).DownloadFiles(ctx, []models.DownloadItem{
		{URL: "https://example.invalid/x", Destination: "/d/x", Group: "libraries"},
	})
	assert.Equal(t, StatusCancelled, result.Items[0].Status)
	assert.Equal(t, 0, result.Info.FailedItems)
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for name, content := range files {
		w, err := writer.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func TestCorruptCachedArchiveIsRedownloadedAndExtracted(t *testing.T) {
	payload := zipBytes(t, map[string]string{"jdk-21/bin/java": "#!/bin/java"})
	var hits atomic.Int32
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(payload)
	})
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/java/jdk-21/jdk.zip", bytes.Repeat([]byte{1}, 100), 0644))

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL:         server.URL + "/jdk.zip",
		Destination: "/data/java/jdk-21/jdk.zip",
		Group:       models.GroupJava,
		Sha1:        archive.Sha1Bytes(payload),
		Size:        int64(len(payload)),
		Options:     &models.DownloadOptions{Extract: true},
	}})

	require.Equal(t, StatusCompleted, result.Items[0].Status, "%v", result.Items[0].Err)
	assert.Equal(t, int32(1), hits.Load())
	data, err := afero.ReadFile(fs, "/data/java/jdk-21/jdk-21/bin/java")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/java", string(data))
	exists, _ := afero.Exists(fs, "/data/java/jdk-21/jdk.zip")
	assert.False(t, exists, "archive removed after extraction by default")
}

func TestExtractKeepsArchiveWhenRequested(t *testing.T) {
	payload := zipBytes(t, map[string]string{"META-INF/MANIFEST.MF": "x", "lwjgl.so": "elf"})
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	fs := afero.NewMemMapFs()

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL:         server.URL + "/natives.jar",
		Destination: "/data/libraries/natives.jar",
		Group:       models.GroupNatives,
		Options: &models.DownloadOptions{
			Extract:       true,
			ExtractFolder: "/data/instance/natives",
			ExtractDelete: models.BoolPtr(false),
			ExtractSkip:   []string{"META-INF/"},
		},
	}})

	require.True(t, result.OK())
	exists, _ := afero.Exists(fs, "/data/instance/natives/lwjgl.so")
	assert.True(t, exists)
	exists, _ = afero.Exists(fs, "/data/instance/natives/META-INF/MANIFEST.MF")
	assert.False(t, exists)
	exists, _ = afero.Exists(fs, "/data/libraries/natives.jar")
	assert.True(t, exists)
}

func TestBrokenArchiveCountsAsFailure(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a zip"))
	})

	result := newTestDownloader(afero.NewMemMapFs(), Options{}).DownloadFiles(context.Background(), []models.DownloadItem{{
		URL: server.URL + "/pack.zip", Destination: "/d/pack.zip", Group: "other",
		Options: &models.DownloadOptions{Extract: true},
	}})
	assert.Equal(t, StatusFailed, result.Items[0].Status)
	assert.Equal(t, 1, result.Info.FailedItems)
}

func TestLocalBlockedAndInvalidItems(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/import/mod.jar", []byte("local mod"), 0644))

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: "file:///import/mod.jar", Destination: "/data/mods/mod.jar", Group: models.GroupMods},
		{URL: "blocked::https://www.curseforge.com/minecraft/mc-mods/x", Destination: "/data/mods/x.jar", Group: models.GroupMods},
		{URL: "", Destination: "/data/mods/y.jar", Group: models.GroupMods},
	})

	assert.Equal(t, StatusCompleted, result.Items[0].Status)
	assert.Equal(t, int64(len("local mod")), result.Items[0].Bytes)
	data, err := afero.ReadFile(fs, filepath.FromSlash("/data/mods/mod.jar"))
	require.NoError(t, err)
	assert.Equal(t, "local mod", string(data))

	assert.Equal(t, StatusBlocked, result.Items[1].Status)
	assert.ErrorIs(t, result.Items[1].Err, ErrBlocked)
	assert.Len(t, result.Blocked(), 1)

	assert.Equal(t, StatusFailed, result.Items[2].Status)
	assert.ErrorIs(t, result.Items[2].Err, ErrInvalidItem)

	assert.Equal(t, 1, result.Info.CompletedItems)
	assert.Equal(t, 1, result.Info.BlockedItems)
	assert.Equal(t, 1, result.Info.FailedItems)
	assert.Equal(t, int64(len("local mod")), result.Info.TotalBytes)
}

func TestBlockedItemAlreadyPlacedByHandIsSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := []byte("manually downloaded mod")
	require.NoError(t, afero.WriteFile(fs, "/data/mods/x.jar", body, 0644))

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{
		{
			URL:         "blocked::https://www.curseforge.com/minecraft/mc-mods/x/files/1",
			Destination: "/data/mods/x.jar",
			Group:       models.GroupMods,
			Sha1:        archive.Sha1Bytes(body),
			Size:        int64(len(body)),
		},
		{
			URL:         "blocked::https://www.curseforge.com/minecraft/mc-mods/y/files/2",
			Destination: "/data/mods/y.jar",
			Group:       models.GroupMods,
			Sha1:        archive.Sha1Bytes([]byte("other")),
			Size:        5,
		},
	})

	assert.Equal(t, StatusSkipped, result.Items[0].Status)
	assert.NoError(t, result.Items[0].Err)
	assert.Equal(t, StatusBlocked, result.Items[1].Status)
	assert.Equal(t, 1, result.Info.BlockedItems)
	assert.Equal(t, 1, result.Info.CompletedItems)
}

func TestBlockedItemWithWrongFileStaysBlocked(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/mods/x.jar", []byte("tampered"), 0644))

	result := newTestDownloader(fs, Options{}).DownloadFiles(context.Background(), []models.DownloadItem{
		{
			URL:         "blocked::https://www.curseforge.com/minecraft/mc-mods/x/files/1",
			Destination: "/data/mods/x.jar",
			Group:       models.GroupMods,
			Sha1:        archive.Sha1Bytes([]byte("the real mod")),
		},
	})

	assert.Equal(t, StatusBlocked, result.Items[0].Status)
	assert.False(t, result.OK())
}

func TestContentLengthRevealsUndeclaredSize(t *testing.T) {
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("12345"))
	})

	result := newTestDownloader(afero.NewMemMapFs(), Options{}).DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: server.URL + "/a", Destination: "/d/a", Group: "other"},
	})
	assert.Equal(t, int64(5), result.Info.TotalBytes)
	assert.Equal(t, int64(5), result.Info.DownloadedBytes)
	assert.Equal(t, 1.0, result.Info.Fraction())
}

func TestObserverReceivesFinalSnapshot(t *testing.T) {
	var mu sync.Mutex
	var snapshots []Info
	observer := ObserverFunc(func(info Info) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, info)
	})
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/a", []byte("a"), 0644))

	newTestDownloader(fs, Options{Observer: observer}).DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: "https://example.invalid/a", Destination: "/d/a", Group: "manifest", Size: 1},
	})

	require.NotEmpty(t, snapshots)
	assert.Equal(t, "manifest", snapshots[0].CurrentGroup)
	last := snapshots[len(snapshots)-1]
	assert.True(t, last.Finished)
	assert.Equal(t, 1, last.CompletedItems)
}

func TestMetricsCountOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	require.NoError(t, err)

	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("abc"))
	})
	newTestDownloader(afero.NewMemMapFs(), Options{Metrics: metrics}).DownloadFiles(context.Background(), []models.DownloadItem{
		{URL: server.URL + "/a", Destination: "/d/a", Group: "libraries"},
		{URL: "blocked::x", Destination: "/d/b", Group: "mods"},
	})

	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.items.WithLabelValues("libraries", "completed")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.items.WithLabelValues("mods", "blocked")))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(metrics.bytes))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.attempts.WithLabelValues("success")))

	_, err = NewMetrics(registry)
	assert.Error(t, err, "duplicate registration is reported")
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, ExponentialBackoff(1))
	assert.Equal(t, 4*time.Second, ExponentialBackoff(2))
}

func TestLocalPath(t *testing.T) {
	path, err := localPath("file:///tmp/a%20b.jar")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/tmp/a b.jar"), path)

	path, err = localPath("file:///C:/mods/a.jar")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("C:/mods/a.jar"), path)
}

func TestWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(wait(ctx, time.Hour), context.Canceled))
	assert.NoError(t, wait(context.Background(), 0))
}
