package ragprep

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves canned responses per URL and tracks request concurrency.
type fakeClient struct {
	mu        sync.Mutex
	responses map[string][]byte
	statuses  map[string]int
	requests  []string

	inFlight      int32
	maxConcurrent int32
	block         chan struct{}
}

func (f *fakeClient) Do(req *http.Request) (*http.Response, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&f.maxConcurrent)
		if cur <= prev || atomic.CompareAndSwapInt32(&f.maxConcurrent, prev, cur) {
			break
		}
	}
	if f.block != nil {
		<-f.block
	}

	url := req.URL.String()
	f.mu.Lock()
	f.requests = append(f.requests, url)
	body, ok := f.responses[url]
	status := f.statuses[url]
	f.mu.Unlock()

	if status == 0 {
		if !ok {
			status = http.StatusNotFound
		} else {
			status = http.StatusOK
		}
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestResolveRemoteImages(t *testing.T) {
	png := makePNG(t, 200, 200)
	opts := DefaultOptions()

	client := &fakeClient{
		responses: map[string][]byte{
			"https://example.com/a.png": png,
		},
	}

	md := "intro\n\n![alt text](https://example.com/a.png)\n\n![gone](https://example.com/missing.png)\n"
	res := resolveRemoteImages(context.Background(), md, &opts, client, testLogger())

	require.Len(t, res.Images, 1)
	assert.Equal(t, OriginRemote, res.Images[0].Origin)
	assert.Contains(t, res.Markdown, "![alt text](media/"+res.Images[0].Key+")")

	// Failed fetches keep the original reference and are recorded.
	assert.Contains(t, res.Markdown, "https://example.com/missing.png")
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "https://example.com/missing.png", res.Failures[0].URL)
}

func TestResolveRemoteImagesDedupesURLs(t *testing.T) {
	png := makePNG(t, 200, 200)
	opts := DefaultOptions()
	client := &fakeClient{
		responses: map[string][]byte{
			"https://example.com/a.png": png,
		},
	}

	md := "![one](https://example.com/a.png) and ![two](https://example.com/a.png)"
	res := resolveRemoteImages(context.Background(), md, &opts, client, testLogger())

	assert.Len(t, client.requests, 1, "same URL should be fetched once")
	require.Len(t, res.Images, 1)
	assert.Equal(t, 2, strings.Count(res.Markdown, "media/"+res.Images[0].Key))
}

func TestResolveRemoteImagesDropsDecorative(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludeDecorative = true
	client := &fakeClient{
		responses: map[string][]byte{
			"https://example.com/spacer.png": makePNG(t, 8, 8),
		},
	}

	md := "before ![spacer](https://example.com/spacer.png) after"
	res := resolveRemoteImages(context.Background(), md, &opts, client, testLogger())

	assert.NotContains(t, res.Markdown, "spacer.png")
	assert.NotContains(t, res.Markdown, "![")
	assert.Empty(t, res.Images)
	assert.Empty(t, res.Failures)
}

func TestResolveRemoteImagesBoundedConcurrency(t *testing.T) {
	png := makePNG(t, 64, 64)
	opts := DefaultOptions()
	opts.RemoteFetchWorkers = 2

	client := &fakeClient{
		responses: map[string][]byte{},
		block:     make(chan struct{}),
	}
	var md strings.Builder
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://example.com/img%d.png", i)
		client.responses[url] = png
		fmt.Fprintf(&md, "![img](%s)\n", url)
	}

	done := make(chan remoteResolution, 1)
	go func() {
		done <- resolveRemoteImages(context.Background(), md.String(), &opts, client, testLogger())
	}()
	close(client.block)
	res := <-done

	assert.LessOrEqual(t, atomic.LoadInt32(&client.maxConcurrent), int32(2))
	require.Len(t, res.Images, 8)
	for _, img := range res.Images {
		assert.Equal(t, res.Images[0].Key, img.Key, "identical bytes share one content key")
	}
}

func TestResolveRemoteImagesNoRemoteRefs(t *testing.T) {
	opts := DefaultOptions()
	client := &fakeClient{}

	md := "plain text with a local image ![x](media/img_abc.png)"
	res := resolveRemoteImages(context.Background(), md, &opts, client, testLogger())

	assert.Equal(t, md, res.Markdown)
	assert.Empty(t, client.requests)
}
