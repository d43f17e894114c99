// internal/worker/harvest_test.go
package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/orbi-cli/internal/config"
)

func TestImageExt(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.orbi.kr/a/b/photo.png", "png"},
		{"https://cdn.orbi.kr/photo.JPG", "jpg"},
		{"https://cdn.orbi.kr/photo.jpeg?v=3", "jpeg"},
		{"https://cdn.orbi.kr/anim.gif", "gif"},
		{"https://cdn.orbi.kr/pic.webp", "webp"},
		{"https://cdn.orbi.kr/pic.bmp", "jpg"},
		{"https://cdn.orbi.kr/noextension", "jpg"},
		{"https://cdn.orbi.kr/weird.php?img=1", "jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, imageExt(tt.url), tt.url)
	}
}

func TestHarvestValidate(t *testing.T) {
	assert.Error(t, (&HarvestAction{DestDir: "x"}).Validate())
	assert.Error(t, (&HarvestAction{Budget: time.Minute}).Validate())
	assert.NoError(t, (&HarvestAction{Budget: time.Minute, DestDir: "x"}).Validate())
}

func TestHarvestNeedsNoLogin(t *testing.T) {
	assert.False(t, (&HarvestAction{}).NeedsLogin())
}

func TestHarvestDownloadsEachPostOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	destDir := t.TempDir()
	postLink := "https://orbi.kr/99887766"

	sess := newFakeSession()
	sess.evaluateFn = func(expression string, res interface{}) error {
		out := res.(*[]string)
		if strings.Contains(expression, "content-wrap") {
			*out = []string{server.URL + "/pic.png", server.URL + "/raw"}
		} else {
			// The listing keeps resurfacing the same post.
			*out = []string{postLink}
		}
		return nil
	}

	action := &HarvestAction{
		Budget:  250 * time.Millisecond,
		DestDir: destDir,
		Timing:  config.HarvestConfig{ContentTimeout: time.Second, ImageTimeout: time.Second},
	}
	rt := runtimeFor(testConfig(factoryFor(sess)))

	out, err := action.Run(context.Background(), sess, rt)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, destDir, out.Artifact)
	assert.Contains(t, out.Message, "saved 2 images")

	assert.FileExists(t, filepath.Join(destDir, "99887766_img0.png"))
	assert.FileExists(t, filepath.Join(destDir, "99887766_img1.jpg"))

	postVisits := 0
	for _, url := range sess.navigatedURLs() {
		if url == postLink {
			postVisits++
		}
	}
	assert.Equal(t, 1, postVisits, "a post already seen this run must be skipped")
}

func TestHarvestSkipsPostsWithoutImages(t *testing.T) {
	destDir := t.TempDir()
	sess := newFakeSession()
	sess.waitErr = func(selector string) error {
		if selector == ".content-wrap img" {
			return assert.AnError
		}
		return nil
	}
	sess.evaluateFn = func(expression string, res interface{}) error {
		out := res.(*[]string)
		if !strings.Contains(expression, "content-wrap") {
			*out = []string{"https://orbi.kr/1", "https://orbi.kr/2"}
		}
		return nil
	}

	action := &HarvestAction{
		Budget:  100 * time.Millisecond,
		DestDir: destDir,
		Timing:  config.HarvestConfig{ContentTimeout: time.Second, ImageTimeout: time.Second},
	}
	rt := runtimeFor(testConfig(factoryFor(sess)))

	out, err := action.Run(context.Background(), sess, rt)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 0, out.Count)
}

func TestHarvestCancelledReportsCancellation(t *testing.T) {
	destDir := t.TempDir()
	sess := newFakeSession()
	rt := runtimeFor(testConfig(factoryFor(sess)))
	sess.navigateErr = func(url string) error {
		rt.worker.Cancel()
		return nil
	}

	action := &HarvestAction{
		Budget:  10 * time.Second,
		DestDir: destDir,
		Timing:  config.HarvestConfig{ContentTimeout: time.Second, ImageTimeout: time.Second},
	}

	_, err := action.Run(context.Background(), sess, rt)
	require.ErrorIs(t, err, ErrCancelled)
}
