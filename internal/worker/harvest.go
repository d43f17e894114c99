// internal/worker/harvest.go
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xkilldash9x/orbi-cli/internal/config"
)

const harvestListScript = `(() =>
	Array.from(document.querySelectorAll("ul.post-list > li:not(.notice) p.title a"))
		.map((a) => a.href)
)()`

const harvestImagesScript = `(() =>
	Array.from(document.querySelectorAll(".content-wrap img"))
		.map((img) => img.src)
)()`

// imageExtensions are the extensions kept as-is; anything else falls back
// to jpg.
var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
}

// HarvestAction crawls the public post listing for a bounded time, visits
// posts it has not seen this run, and downloads every inline image to the
// destination directory. Runs unauthenticated; the listing is public.
type HarvestAction struct {
	// Budget is the total wall-clock run time.
	Budget time.Duration
	// DestDir receives the downloaded images, named {postID}_img{index}.{ext}.
	DestDir string
	Timing  config.HarvestConfig
	// Client downloads images. Nil means a default resty client.
	Client *resty.Client
}

func (a *HarvestAction) Name() string { return "harvest" }

func (a *HarvestAction) NeedsLogin() bool { return false }

func (a *HarvestAction) Validate() error {
	if a.Budget <= 0 {
		return fmt.Errorf("run time must be positive")
	}
	if a.DestDir == "" {
		return fmt.Errorf("destination directory is required")
	}
	return nil
}

func (a *HarvestAction) Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error) {
	if err := os.MkdirAll(a.DestDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("failed to create destination directory: %w", err)
	}

	client := a.Client
	if client == nil {
		client = resty.New()
	}

	listURL := rt.Site().BaseURL + "/list"
	deadline := time.Now().Add(a.Budget)
	// Visited post URLs, scoped to this run. A post is harvested once even
	// when the listing keeps resurfacing it.
	seen := make(map[string]struct{})
	saved := 0

	for time.Now().Before(deadline) {
		if rt.Cancelled() {
			return Outcome{}, ErrCancelled
		}
		rt.Progressf("loading post list (%.1f minutes remaining)", time.Until(deadline).Minutes())

		if err := sess.Navigate(ctx, listURL); err != nil {
			rt.Progressf("failed to load post list: %v", err)
			if !rt.Sleep(rt.Pacing().ActionDelay) {
				return Outcome{}, ErrCancelled
			}
			continue
		}
		if !rt.Sleep(rt.Pacing().PageSettle) {
			return Outcome{}, ErrCancelled
		}

		var links []string
		if err := sess.Evaluate(ctx, harvestListScript, &links); err != nil {
			rt.Progressf("failed to read post list: %v", err)
			if !rt.Sleep(rt.Pacing().ActionDelay) {
				return Outcome{}, ErrCancelled
			}
			continue
		}
		if len(links) == 0 {
			rt.Progressf("no posts found, retrying")
			if !rt.Sleep(rt.Pacing().ActionDelay) {
				return Outcome{}, ErrCancelled
			}
			continue
		}
		rt.Progressf("found %d posts", len(links))

		for _, link := range links {
			if rt.Cancelled() {
				return Outcome{}, ErrCancelled
			}
			if !time.Now().Before(deadline) {
				break
			}
			if link == "" {
				continue
			}
			if _, visited := seen[link]; visited {
				continue
			}
			seen[link] = struct{}{}
			saved += a.harvestPost(ctx, sess, rt, client, link)
		}

		if !rt.Sleep(rt.Pacing().PageSettle) {
			return Outcome{}, ErrCancelled
		}
	}

	if rt.Cancelled() {
		return Outcome{}, ErrCancelled
	}
	return Outcome{
		Success:  true,
		Message:  fmt.Sprintf("harvest finished: saved %d images", saved),
		Count:    saved,
		Artifact: a.DestDir,
	}, nil
}

// harvestPost visits one post and downloads its inline images, returning
// how many were saved. Every failure here only skips the post or image.
func (a *HarvestAction) harvestPost(ctx context.Context, sess Session, rt *Runtime, client *resty.Client, link string) int {
	rt.Progressf("visiting post: %s", link)
	if err := sess.Navigate(ctx, link); err != nil {
		rt.Progressf("failed to open post: %v", err)
		return 0
	}
	rt.Sleep(rt.Pacing().PageSettle)

	if err := sess.WaitVisible(ctx, ".content-wrap", a.Timing.ContentTimeout); err != nil {
		rt.Progressf("post has no readable content: %v", err)
		return 0
	}
	if err := sess.WaitVisible(ctx, ".content-wrap img", a.Timing.ImageTimeout); err != nil {
		rt.Progressf("post has no images")
		return 0
	}

	var srcs []string
	if err := sess.Evaluate(ctx, harvestImagesScript, &srcs); err != nil {
		rt.Progressf("failed to collect image URLs: %v", err)
		return 0
	}
	rt.Progressf("found %d images", len(srcs))

	postID := link[strings.LastIndex(link, "/")+1:]
	saved := 0
	for idx, src := range srcs {
		if rt.Cancelled() {
			break
		}
		if src == "" {
			continue
		}

		savePath := filepath.Join(a.DestDir, fmt.Sprintf("%s_img%d.%s", postID, idx, imageExt(src)))
		resp, err := client.R().SetContext(ctx).SetOutput(savePath).Get(src)
		if err != nil {
			rt.Progressf("image download failed: %v", err)
			continue
		}
		if resp.IsError() {
			rt.Progressf("image download failed with status %d", resp.StatusCode())
			continue
		}

		saved++
		rt.Progressf("saved image: %s", savePath)
	}
	return saved
}

// imageExt extracts the file extension from an image URL, defaulting to jpg
// for anything outside the known set.
func imageExt(url string) string {
	parts := strings.Split(url, ".")
	ext := parts[len(parts)-1]
	if i := strings.Index(ext, "?"); i >= 0 {
		ext = ext[:i]
	}
	ext = strings.ToLower(ext)
	if _, ok := imageExtensions[ext]; ok {
		return ext
	}
	return "jpg"
}
