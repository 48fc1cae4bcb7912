package daemon_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"marquee/internal/daemon"
	"marquee/internal/logging"
	"marquee/internal/store"
	"marquee/internal/testsupport"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, st, okHandler(), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running || status.Addr == "" {
		t.Fatalf("expected running daemon with address, got %+v", status)
	}
	if status.LockFilePath != cfg.LockPath() || status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected paths %+v", status)
	}

	resp, err := http.Get("http://" + status.Addr + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, st, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, st, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(first.Stop)
	t.Cleanup(second.Stop)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("expected start after lock release, got %v", err)
	}
}

func TestDaemonSweepsExpiredStories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	story, err := st.CreatePost(ctx, store.Post{
		UserID:    "u1",
		Kind:      store.KindStory,
		Body:      "old news",
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}, 24*time.Hour)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	post, err := st.CreatePost(ctx, store.Post{UserID: "u1", Body: "stays"}, time.Hour)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	d, err := daemon.New(cfg, st, okHandler(), nil, daemon.WithSweepInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := st.GetPost(ctx, story.ID)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expired story was not purged: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := st.GetPost(ctx, post.ID); err != nil {
		t.Fatalf("plain post should survive the sweep: %v", err)
	}
}

func TestDaemonRunsExtraJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ran := make(chan struct{}, 8)
	d, err := daemon.New(cfg, st, okHandler(), nil,
		daemon.WithJob(daemon.Job{
			Name:     "probe",
			Interval: 10 * time.Millisecond,
			Run: func(context.Context) error {
				select {
				case ran <- struct{}{}:
				default:
				}
				return errors.New("transient")
			},
		}),
		daemon.WithJob(daemon.Job{Name: "ignored"}),
	)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("job ran %d times before timeout", i)
		}
	}
	jobs := d.Status().Jobs
	if len(jobs) != 2 || jobs[0] != "story_sweep" || jobs[1] != "probe" {
		t.Fatalf("unexpected jobs %v", jobs)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
