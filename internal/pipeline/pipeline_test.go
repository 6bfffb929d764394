package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"spool/internal/config"
	"spool/internal/jobspec"
	"spool/internal/ledger"
	"spool/internal/media/ffprobe"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
	"spool/internal/testsupport"
)

const baseSpec = `{
	"job_id": "demo-reel",
	"output_name": "demo.mp4",
	"dimensions": {"width": 1080, "height": 1920, "fps": 30},
	"render": {"use_parallel": true, "quality": "final"},
	"slides": [
		{"image": "a.jpg", "audio": "a.m4a"},
		{"image": "b.jpg", "audio": "b.m4a",
		 "motion": {"type": "pan-left", "transition": {"type": "crossfade", "duration": 0.5}}}
	]
}`

const chunkSpec = `{
	"job_id": "chunked",
	"output_name": "chunked.mp4",
	"dimensions": {"width": 1080, "height": 1920, "fps": 30},
	"render": {"use_parallel": true},
	"slides": [
		{"image": "a.jpg", "audio": "a.m4a"},
		{"image": "b.jpg", "audio": "b.m4a", "subtitle": false}
	],
	"subtitle": {"chunks": [
		{"slide_index": 0, "chunk_index": 0, "text": "hello there", "start": 0, "duration": 1.2},
		{"slide_index": 1, "chunk_index": 0, "text": "muted slide", "start": 0, "duration": 1.0}
	]}
}`

const trailerSpec = `{
	"job_id": "full-feature",
	"output_name": "full.mp4",
	"dimensions": {"width": 1080, "height": 1920, "fps": 30},
	"render": {"use_parallel": true},
	"slides": [{"image": "a.jpg", "audio": "a.m4a"}],
	"ending_video": "ending.mp4",
	"background_music": {"file": "bed.mp3", "volume": 0.2, "mute_ranges": [[0, 1.5]]}
}`

// fakeRunner records every invocation and fabricates the output file ffmpeg
// would have written, since downstream stages stat their inputs.
type fakeRunner struct {
	mu       sync.Mutex
	calls    [][]string
	failWhen func(args []string) bool
}

func (f *fakeRunner) Run(_ context.Context, args []string) (ffmpeg.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()
	if f.failWhen != nil && f.failWhen(args) {
		return ffmpeg.Result{ExitCode: 1, Stderr: "simulated encode failure"}, nil
	}
	if err := os.WriteFile(args[len(args)-1], []byte("frames"), 0o644); err != nil {
		return ffmpeg.Result{}, err
	}
	return ffmpeg.Result{ExitCode: 0}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// firstCallWith returns the index of the first invocation whose argv contains
// the substring, or -1 when no call mentions it.
func (f *fakeRunner) firstCallWith(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, call := range f.calls {
		for _, arg := range call {
			if strings.Contains(arg, substr) {
				return i
			}
		}
	}
	return -1
}

// blockRunner parks until the context expires, standing in for a hung encode.
type blockRunner struct{}

func (blockRunner) Run(ctx context.Context, _ []string) (ffmpeg.Result, error) {
	<-ctx.Done()
	return ffmpeg.Result{}, ctx.Err()
}

func failSlideEncodes(args []string) bool {
	for _, arg := range args {
		if arg == "-loop" {
			return true
		}
	}
	return false
}

func stubProbe(durations map[string]float64) ProbeFunc {
	return func(_ context.Context, path string) (ffprobe.Result, error) {
		if d, ok := durations[filepath.Base(path)]; ok {
			return ffprobe.Result{Format: ffprobe.Format{Duration: strconv.FormatFloat(d, 'f', -1, 64)}}, nil
		}
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", Width: 1080, Height: 1920}},
			Format:  ffprobe.Format{Duration: "12.5"},
		}, nil
	}
}

func slideDurations() map[string]float64 {
	return map[string]float64{"a.m4a": 3.2, "b.m4a": 4.1}
}

func parseJob(t *testing.T, spec string) *jobspec.Job {
	t.Helper()
	job, err := jobspec.Parse([]byte(spec))
	if err != nil {
		t.Fatalf("parse job spec: %v", err)
	}
	return job
}

func writeBundle(t *testing.T, cfg *config.Config, names ...string) string {
	t.Helper()
	dir := filepath.Join(testsupport.BaseDir(cfg), "bundle")
	for _, name := range names {
		testsupport.WriteFile(t, filepath.Join(dir, name), 64)
	}
	return dir
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	result, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.RunID == "" {
		t.Error("expected a run ID")
	}
	if result.JobID != "demo-reel" {
		t.Errorf("JobID = %q", result.JobID)
	}
	if result.SlideCount != 2 {
		t.Errorf("SlideCount = %d, want 2", result.SlideCount)
	}
	if result.TransitionCount != 1 {
		t.Errorf("TransitionCount = %d, want 1", result.TransitionCount)
	}
	if result.Quality != "final" {
		t.Errorf("Quality = %q", result.Quality)
	}
	if !result.Recorded {
		t.Error("expected run to be recorded in history")
	}
	if result.DurationSeconds <= 0 {
		t.Errorf("DurationSeconds = %v, want > 0", result.DurationSeconds)
	}

	wantOutput := filepath.Join(cfg.Paths.OutputDir, "demo.mp4")
	if result.OutputPath != wantOutput {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, wantOutput)
	}
	info, err := os.Stat(result.OutputPath)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("delivered output is empty")
	}

	// Two slide encodes plus one blend join.
	if got := runner.callCount(); got != 3 {
		t.Errorf("ffmpeg call count = %d, want 3", got)
	}

	entries, err := os.ReadDir(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Errorf("work directory %s survived a successful run", entry.Name())
		}
	}

	store := testsupport.MustOpenLedger(t, cfg)
	rec, err := store.GetByRunID(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("GetByRunID: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a history record")
	}
	if rec.Status != ledger.StatusSucceeded {
		t.Errorf("history status = %q", rec.Status)
	}
	if rec.SlideCount != 2 || rec.TransitionCount != 1 {
		t.Errorf("history counts = %d/%d, want 2/1", rec.SlideCount, rec.TransitionCount)
	}
	if rec.GPU != "L4" {
		t.Errorf("history GPU = %q, want L4", rec.GPU)
	}
	if rec.OutputPath != wantOutput {
		t.Errorf("history output = %q, want %q", rec.OutputPath, wantOutput)
	}
}

func TestRunExplicitOutputPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	custom := filepath.Join(testsupport.BaseDir(cfg), "elsewhere", "final.mp4")
	result, err := p.Run(context.Background(), Request{
		Job:        parseJob(t, baseSpec),
		BundlePath: bundleDir,
		OutputPath: custom,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.OutputPath != custom {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, custom)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("stat explicit output: %v", err)
	}
}

func TestRunFailedSlidesRecorded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{failWhen: failSlideEncodes}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	_, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if err == nil {
		t.Fatal("expected render failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Errorf("error %v is not an external tool failure", err)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	records, listErr := store.List(context.Background(), 1)
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(records) != 1 {
		t.Fatalf("history rows = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Status != ledger.StatusFailed {
		t.Errorf("history status = %q", rec.Status)
	}
	if rec.FailedStage != "render" {
		t.Errorf("failed stage = %q, want render", rec.FailedStage)
	}
	if rec.FailedSlides != "0, 1" {
		t.Errorf("failed slides = %q, want %q", rec.FailedSlides, "0, 1")
	}
}

func TestRunMissingAssetFailsBeforeEncoding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	// b.m4a deliberately absent.
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	_, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
	if got := runner.callCount(); got != 0 {
		t.Errorf("ffmpeg ran %d times before the missing asset surfaced", got)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	records, listErr := store.List(context.Background(), 1)
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(records) != 1 || records[0].FailedStage != "resolve" {
		t.Errorf("expected one failure recorded at the resolve stage, got %+v", records)
	}
}

func TestRunUnknownQualityRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	job := parseJob(t, baseSpec)
	job.Render.Quality = "lossless"
	_, err := p.Run(context.Background(), Request{Job: job, BundlePath: bundleDir})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
	if got := runner.callCount(); got != 0 {
		t.Errorf("ffmpeg ran %d times for an invalid quality", got)
	}
}

func TestRunRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	lock := flock.New(filepath.Join(cfg.Paths.StagingDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(&fakeRunner{}), WithProbe(stubProbe(slideDurations())))

	_, err = p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("error = %v, want transient", err)
	}
	if !strings.Contains(err.Error(), "staging lock") {
		t.Errorf("error %v does not mention the staging lock", err)
	}
}

func TestRunPreflightGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	testsupport.WriteFile(t, blocker, 1)
	cfg.History.DBPath = filepath.Join(blocker, "history.db")

	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	_, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration", err)
	}
	if !strings.Contains(err.Error(), "preflight") {
		t.Errorf("error %v does not mention preflight", err)
	}
	if got := runner.callCount(); got != 0 {
		t.Errorf("ffmpeg ran %d times despite a failed preflight", got)
	}
}

func TestRunTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Render.TimeoutSeconds = 1
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(blockRunner{}), WithProbe(stubProbe(slideDurations())))

	start := time.Now()
	_, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("run took %s to time out", elapsed)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	records, listErr := store.List(context.Background(), 1)
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(records) != 1 || records[0].FailedStage != "render" {
		t.Errorf("expected the timeout recorded at the render stage, got %+v", records)
	}
}

func TestRunBurnsGeneratedChunks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	result, err := p.Run(context.Background(), Request{Job: parseJob(t, chunkSpec), BundlePath: bundleDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runner.firstCallWith("subtitles.ass") < 0 {
		t.Error("no ffmpeg call burned the generated overlay")
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Errorf("stat output: %v", err)
	}
}

func TestRunSubtitleFileWinsOverChunks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a", "subs.srt")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	job := parseJob(t, chunkSpec)
	job.Subtitle.File = "subs.srt"
	if _, err := p.Run(context.Background(), Request{Job: job, BundlePath: bundleDir}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runner.firstCallWith("subs.srt") < 0 {
		t.Error("ready-made subtitle file was not burned")
	}
	if runner.firstCallWith("subtitles.ass") >= 0 {
		t.Error("karaoke overlay generated despite a ready-made subtitle file")
	}
}

func TestRunEndingAndMusicStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "ending.mp4", "bed.mp3")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(map[string]float64{"a.m4a": 5.0})))

	result, err := p.Run(context.Background(), Request{Job: parseJob(t, trailerSpec), BundlePath: bundleDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Slide encode, concat join, two conforms, append concat, music mix.
	if got := runner.callCount(); got != 6 {
		t.Errorf("ffmpeg call count = %d, want 6", got)
	}
	endingIdx := runner.firstCallWith("ending.mp4")
	mixIdx := runner.firstCallWith("bed.mp3")
	if endingIdx < 0 || mixIdx < 0 {
		t.Fatalf("missing stage invocations: ending=%d mix=%d", endingIdx, mixIdx)
	}
	if endingIdx > mixIdx {
		t.Errorf("ending conform at call %d ran after the music mix at %d", endingIdx, mixIdx)
	}
	if result.TransitionCount != 0 {
		t.Errorf("TransitionCount = %d, want 0", result.TransitionCount)
	}
}

func TestRunHistoryDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistoryDisabled())
	runner := &fakeRunner{}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	result, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Recorded {
		t.Error("run reported as recorded with history disabled")
	}
	if _, err := os.Stat(cfg.History.DBPath); !os.IsNotExist(err) {
		t.Errorf("history database materialized anyway: %v", err)
	}
}

func TestRunKeepsStagingOnFailureWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Render.KeepStagingOnErr = true
	runner := &fakeRunner{failWhen: failSlideEncodes}
	bundleDir := writeBundle(t, cfg, "a.jpg", "a.m4a", "b.jpg", "b.m4a")
	p := New(cfg, WithRunner(runner), WithProbe(stubProbe(slideDurations())))

	_, err := p.Run(context.Background(), Request{Job: parseJob(t, baseSpec), BundlePath: bundleDir})
	if err == nil {
		t.Fatal("expected render failure")
	}

	entries, readErr := os.ReadDir(cfg.Paths.StagingDir)
	if readErr != nil {
		t.Fatalf("read staging dir: %v", readErr)
	}
	kept := false
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "demo-reel-") {
			kept = true
		}
	}
	if !kept {
		t.Error("work directory was removed despite keep_staging_on_error")
	}
}
