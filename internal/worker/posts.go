// internal/worker/posts.go
package worker

import (
	"context"
	"fmt"
)

// postListScript extracts {id,title} pairs from a my-posts listing page.
// The id is the trailing path segment of each entry's first link.
const postListScript = `(() => {
	const out = [];
	document.querySelectorAll("ul.post-list > li").forEach((li) => {
		const title = li.querySelector("p.title");
		const link = li.querySelector("a");
		const href = link ? (link.getAttribute("href") || "") : "";
		const parts = href.split("/");
		out.push({
			id: parts.length ? parts[parts.length - 1] : "",
			title: title ? title.textContent.trim() : "",
		});
	});
	return out;
})()`

// ListPostsAction paginates the account's own post listing and collects
// every entry. Pagination stops at the first page with no valid entries;
// a failing page stops pagination but keeps what earlier pages yielded.
type ListPostsAction struct{}

func (a *ListPostsAction) Name() string { return "posts-list" }

func (a *ListPostsAction) NeedsLogin() bool { return true }

func (a *ListPostsAction) Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error) {
	var posts []Post
	page := 1

	for {
		if rt.Cancelled() {
			return Outcome{}, ErrCancelled
		}
		rt.Progressf("fetching post list page %d", page)

		url := fmt.Sprintf("%s/my/post?page=%d", rt.Site().BaseURL, page)
		if err := sess.Navigate(ctx, url); err != nil {
			rt.Progressf("failed to load page %d: %v", page, err)
			break
		}
		if !rt.Sleep(rt.Pacing().PageSettle) {
			return Outcome{}, ErrCancelled
		}

		var entries []Post
		if err := sess.Evaluate(ctx, postListScript, &entries); err != nil {
			rt.Progressf("failed to read post list on page %d: %v", page, err)
			break
		}

		found := 0
		for _, entry := range entries {
			if entry.ID == "" || entry.Title == "" {
				continue
			}
			posts = append(posts, entry)
			found++
			rt.Progressf("found post: %s (id %s)", entry.Title, entry.ID)
		}
		if found == 0 {
			rt.Progressf("no more posts on page %d", page)
			break
		}
		page++
	}

	if len(posts) == 0 {
		return Outcome{Success: false, Message: "no posts found"}, nil
	}
	return Outcome{
		Success: true,
		Message: fmt.Sprintf("found %d posts", len(posts)),
		Count:   len(posts),
		Posts:   posts,
	}, nil
}

// DeletePostsAction deletes the given posts one by one through each post's
// modify page. Per-post failures are reported and skipped.
type DeletePostsAction struct {
	IDs []string
}

func (a *DeletePostsAction) Name() string { return "posts-delete" }

func (a *DeletePostsAction) NeedsLogin() bool { return true }

func (a *DeletePostsAction) Validate() error {
	if len(a.IDs) == 0 {
		return fmt.Errorf("at least one post id is required")
	}
	return nil
}

func (a *DeletePostsAction) Run(ctx context.Context, sess Session, rt *Runtime) (Outcome, error) {
	successCount := 0

	for i, id := range a.IDs {
		if rt.Cancelled() {
			return Outcome{}, ErrCancelled
		}
		rt.Progressf("deleting post %d/%d (id %s)", i+1, len(a.IDs), id)

		if err := a.deleteOne(ctx, sess, rt, id); err != nil {
			rt.Progressf("failed to delete post %d/%d: %v", i+1, len(a.IDs), err)
			if !rt.Sleep(rt.Pacing().ActionDelay) {
				return Outcome{}, ErrCancelled
			}
			continue
		}

		successCount++
		rt.Progressf("post %d/%d deleted", i+1, len(a.IDs))
		if !rt.Sleep(rt.Pacing().ActionDelay) {
			return Outcome{}, ErrCancelled
		}
	}

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("deleted %d/%d posts", successCount, len(a.IDs)),
		Count:   successCount,
	}, nil
}

func (a *DeletePostsAction) deleteOne(ctx context.Context, sess Session, rt *Runtime, id string) error {
	if err := sess.Navigate(ctx, fmt.Sprintf("%s/modify/%s", rt.Site().BaseURL, id)); err != nil {
		return &TransientError{Op: "open modify page", Err: err}
	}
	if !rt.Sleep(rt.Pacing().PageSettle) {
		return ErrCancelled
	}
	if err := sess.Click(ctx, ".button.delete"); err != nil {
		return &TransientError{Op: "click delete button", Err: err}
	}
	rt.Sleep(rt.Pacing().DialogSettle)
	if _, ok := sess.TryDismissDialog(); ok {
		rt.Progressf("deletion confirmed")
	} else {
		rt.Progressf("no confirmation dialog appeared")
	}
	return nil
}
