package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"renderq/internal/config"
	"renderq/internal/ledger"
	"renderq/internal/logging"
	"renderq/internal/renderqueue"
	"renderq/internal/services"
	"renderq/internal/shotlist"
)

const component = "runner"

// Config holds the Blender invocation settings.
type Config struct {
	Binary             string
	RenderScript       string
	CompositorScript   string
	CompositorChain    string
	CompositeExtension string
	// ShotListPath is passed to the render and compositor scripts.
	ShotListPath string
	// ToolLogDir receives one log file per launch. Empty discards output.
	ToolLogDir string
	SessionID  string
}

// ConfigFromApp derives runner settings from the application config.
func ConfigFromApp(cfg *config.Config, sessionID string) Config {
	return Config{
		Binary:             cfg.Blender.Binary,
		RenderScript:       cfg.Blender.RenderScript,
		CompositorScript:   cfg.Blender.CompositorScript,
		CompositorChain:    cfg.Blender.CompositorChain,
		CompositeExtension: cfg.Blender.CompositeExtension,
		ShotListPath:       cfg.Paths.ShotList,
		ToolLogDir:         cfg.ToolLogDir(),
		SessionID:          sessionID,
	}
}

// ShotSource provides the current shot list.
type ShotSource interface {
	DB() *shotlist.DB
}

// Recorder persists launch history.
type Recorder interface {
	RecordStart(ctx context.Context, launch ledger.Launch) error
	RecordPID(ctx context.Context, id string, pid int) error
	RecordFinish(ctx context.Context, id string, finished time.Time, exitCode int, errText string) error
}

// Option configures the Blender runner.
type Option func(*Blender)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(b *Blender) {
		if exec != nil {
			b.exec = exec
		}
	}
}

// WithRecorder records every launch in the given ledger.
func WithRecorder(rec Recorder) Option {
	return func(b *Blender) { b.recorder = rec }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Blender) {
		if now != nil {
			b.now = now
		}
	}
}

// WithProcessCheck overrides the liveness check used for adopted launches.
func WithProcessCheck(alive func(pid int) bool) Option {
	return func(b *Blender) {
		if alive != nil {
			b.alive = alive
		}
	}
}

// WithIDGenerator overrides launch id generation.
func WithIDGenerator(next func() string) Option {
	return func(b *Blender) {
		if next != nil {
			b.newID = next
		}
	}
}

// Blender implements Runner by shelling out to the Blender executable.
type Blender struct {
	cfg      Config
	shots    ShotSource
	exec     Executor
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	alive    func(pid int) bool

	mu       sync.Mutex
	inflight map[string]string
	// adopted maps launch keys held by processes started before this
	// runner existed to their pid.
	adopted map[string]int
	wg      sync.WaitGroup
}

var _ Runner = (*Blender)(nil)

// NewBlender constructs the Blender runner.
func NewBlender(cfg Config, shots ShotSource, logger *slog.Logger, opts ...Option) (*Blender, error) {
	cfg.Binary = strings.TrimSpace(cfg.Binary)
	if cfg.Binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "blender binary required", nil)
	}
	if shots == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "shot list required", nil)
	}
	if cfg.CompositeExtension == "" {
		cfg.CompositeExtension = "png"
	}
	b := &Blender{
		cfg:      cfg,
		shots:    shots,
		exec:     commandExecutor{},
		logger:   logging.NewComponentLogger(logger, component),
		now:      time.Now,
		newID:    uuid.NewString,
		alive:    ProcessAlive,
		inflight: make(map[string]string),
		adopted:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ShotPlan is everything derived from the shot list for one queue entry.
type ShotPlan struct {
	Ref       renderqueue.ShotRef
	Shot      shotlist.ResolvedShot
	Settings  shotlist.ShotSettings
	Render    OutputLayout
	Composite OutputLayout
}

// Plan resolves ref against the current shot list.
func (b *Blender) Plan(ref renderqueue.ShotRef) (ShotPlan, error) {
	db := b.shots.DB()
	shot, err := db.ResolveShot(ref.Category, ref.ID)
	if err != nil {
		return ShotPlan{}, err
	}
	settings, err := shot.Settings()
	if err != nil {
		return ShotPlan{}, err
	}
	root := db.RenderRoot()
	return ShotPlan{
		Ref:       ref,
		Shot:      shot,
		Settings:  settings,
		Render:    RenderLayout(root, shot.Key, settings, ref.Slate),
		Composite: CompositeLayout(root, shot.Key, settings, ref.Slate, b.cfg.CompositeExtension),
	}, nil
}

// IsComplete reports whether every render frame of the shot exists.
func (b *Blender) IsComplete(_ context.Context, ref renderqueue.ShotRef, _ renderqueue.Quality) (bool, error) {
	plan, err := b.Plan(ref)
	if err != nil {
		return false, err
	}
	return CheckFrames(plan.Render, plan.Settings.Frames)
}

// IsComposited reports whether every composite frame of the shot exists.
func (b *Blender) IsComposited(_ context.Context, ref renderqueue.ShotRef, _ renderqueue.Quality) (bool, error) {
	plan, err := b.Plan(ref)
	if err != nil {
		return false, err
	}
	return CheckFrames(plan.Composite, plan.Settings.Frames)
}

// CompositingEnabled reports the shot's compositing_enabled flag.
func (b *Blender) CompositingEnabled(_ context.Context, ref renderqueue.ShotRef) (bool, error) {
	plan, err := b.Plan(ref)
	if err != nil {
		return false, err
	}
	return plan.Settings.CompositingEnabled, nil
}

// Build renders the shot:
//
//	blender -b <blend> --python <render_script> -- <shot_list> <category> <id> <quality> <slate>
func (b *Blender) Build(ctx context.Context, ref renderqueue.ShotRef, quality renderqueue.Quality, opts LaunchOptions) error {
	plan, err := b.Plan(ref)
	if err != nil {
		return err
	}
	if plan.Settings.BlendFile == "" {
		return services.Wrap(services.ErrConfiguration, component, "build",
			fmt.Sprintf("shot %s does not specify blend_file", ref.Key()), nil)
	}
	blend, err := ResolveBlendFile(plan.Settings.BlendFile)
	if err != nil {
		return err
	}
	args := []string{
		"-b", blend,
		"--python", b.cfg.RenderScript,
		"--",
		b.cfg.ShotListPath,
		ref.Category,
		ref.ID,
		quality.String(),
		strconv.Itoa(ref.Slate),
	}
	return b.launch(ctx, ledger.PassRender, ref, quality, args, opts)
}

// Composite runs the compositor chain over the shot's rendered frames:
//
//	blender -b <chain> --python <compositor_script> -- <shot_list> <category> <id> <slate> <ext>
func (b *Blender) Composite(ctx context.Context, ref renderqueue.ShotRef, quality renderqueue.Quality, opts LaunchOptions) error {
	if _, err := b.Plan(ref); err != nil {
		return err
	}
	if strings.TrimSpace(b.cfg.CompositorChain) == "" {
		return services.Wrap(services.ErrConfiguration, component, "composite", "blender.compositor_chain is not configured", nil)
	}
	args := []string{
		"-b", b.cfg.CompositorChain,
		"--python", b.cfg.CompositorScript,
		"--",
		b.cfg.ShotListPath,
		ref.Category,
		ref.ID,
		strconv.Itoa(ref.Slate),
		b.cfg.CompositeExtension,
	}
	return b.launch(ctx, ledger.PassComposite, ref, quality, args, opts)
}

// Wait blocks until every background launch has been reaped.
func (b *Blender) Wait() {
	b.wg.Wait()
}

// InFlight returns the number of launches still running.
func (b *Blender) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}

// Adopt registers launches left running by an earlier renderq process so the
// same pass is not started twice while their Blender process is alive.
// Launches without a live pid are skipped. It returns how many were adopted.
func (b *Blender) Adopt(launches []ledger.Launch) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	adopted := 0
	for _, launch := range launches {
		if launch.FinishedAt != nil || !b.alive(launch.PID) {
			continue
		}
		key := ledgerKey(launch)
		if _, ok := b.inflight[key]; ok {
			continue
		}
		b.inflight[key] = launch.ID
		b.adopted[key] = launch.PID
		adopted++
		b.logger.Info("running launch adopted",
			logging.String(logging.FieldEventType, "launch_adopted"),
			logging.String(logging.FieldLaunchID, launch.ID),
			logging.String("pass", string(launch.Pass)),
			logging.Int("pid", launch.PID),
		)
	}
	return adopted
}

func (b *Blender) launch(ctx context.Context, pass ledger.Pass, ref renderqueue.ShotRef, quality renderqueue.Quality, args []string, opts LaunchOptions) error {
	key := launchKey(pass, ref, quality)
	b.expireAdopted(ctx, key)
	id := b.newID()
	if holder, ok := b.claim(key, id); !ok {
		return fmt.Errorf("%w: %s %s (launch %s)", ErrAlreadyRunning, pass, ref, holder)
	}

	ctx = services.WithShot(services.WithLaunchID(ctx, id), ref.String())
	logger := logging.WithContext(ctx, b.logger).With(logging.String("pass", string(pass)))

	logPath, output, err := b.openToolLog(pass, id)
	if err != nil {
		b.release(key)
		return services.Wrap(services.ErrExternalTool, component, string(pass), "open tool log", err)
	}
	command := commandLine(b.cfg.Binary, args)
	_, _ = fmt.Fprintf(output, "# %s\n", command)

	started := b.now()
	b.recordStart(ctx, logger, ledger.Launch{
		ID:         id,
		Pass:       pass,
		Category:   ref.Category,
		ShotID:     ref.ID,
		Slate:      ref.Slate,
		Quality:    quality.String(),
		Background: opts.Background,
		Command:    command,
		LogPath:    logPath,
		SessionID:  b.cfg.SessionID,
		StartedAt:  started,
	})

	runCtx := ctx
	if opts.Background {
		// Background jobs outlive the iteration that started them.
		runCtx = context.WithoutCancel(ctx)
	}
	proc, err := b.exec.Start(runCtx, b.cfg.Binary, args, output)
	if err != nil {
		b.recordFinish(ctx, logger, id, -1, err)
		_ = output.Close()
		b.release(key)
		return services.Wrap(services.ErrExternalTool, component, string(pass), "start blender", err)
	}
	if pid := proc.Pid(); pid > 0 && b.recorder != nil {
		if err := b.recorder.RecordPID(ctx, id, pid); err != nil {
			logger.Debug("ledger pid update failed", logging.Error(err))
		}
	}
	logger.Info("blender launched",
		logging.String(logging.FieldEventType, "blender_launched"),
		logging.String("quality", quality.String()),
		logging.Bool("background", opts.Background),
		logging.Int("pid", proc.Pid()),
		logging.String("tool_log", logPath),
	)

	if opts.Background {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer b.release(key)
			defer output.Close()
			if err := b.reap(runCtx, logger, id, pass, proc, started); err != nil {
				logging.ErrorWithContext(logger, "background blender job failed", "blender_failed",
					append(logging.ErrorAttrs(err),
						logging.String("tool_log", logPath),
						logging.String(logging.FieldErrorHint, "inspect the tool log; the shot is retried on the next pass"),
					)...,
				)
			}
		}()
		return nil
	}

	defer b.release(key)
	defer output.Close()
	return b.reap(ctx, logger, id, pass, proc, started)
}

func (b *Blender) reap(ctx context.Context, logger *slog.Logger, id string, pass ledger.Pass, proc Process, started time.Time) error {
	waitErr := proc.Wait()
	code := exitCode(waitErr)
	b.recordFinish(ctx, logger, id, code, waitErr)
	if waitErr != nil {
		return services.Wrap(services.ErrExternalTool, component, string(pass),
			fmt.Sprintf("blender exited with code %d", code), waitErr)
	}
	logger.Info("blender finished",
		logging.String(logging.FieldEventType, "blender_finished"),
		logging.Duration("elapsed", b.now().Sub(started)),
	)
	return nil
}

func (b *Blender) claim(key, id string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if holder, ok := b.inflight[key]; ok {
		return holder, false
	}
	b.inflight[key] = id
	return id, true
}

// expireAdopted drops an adopted launch whose process has exited and closes
// its ledger row.
func (b *Blender) expireAdopted(ctx context.Context, key string) {
	b.mu.Lock()
	pid, ok := b.adopted[key]
	if !ok || b.alive(pid) {
		b.mu.Unlock()
		return
	}
	id := b.inflight[key]
	delete(b.adopted, key)
	delete(b.inflight, key)
	b.mu.Unlock()

	logger := b.logger.With(logging.String(logging.FieldLaunchID, id))
	logger.Debug("adopted launch exited", logging.Int("pid", pid))
	b.recordFinish(ctx, logger, id, -1, errAdoptedExited)
}

func (b *Blender) release(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, key)
}

func (b *Blender) openToolLog(pass ledger.Pass, id string) (string, io.WriteCloser, error) {
	if strings.TrimSpace(b.cfg.ToolLogDir) == "" {
		return "", nopWriteCloser{io.Discard}, nil
	}
	if err := os.MkdirAll(b.cfg.ToolLogDir, 0o755); err != nil {
		return "", nil, err
	}
	path := filepath.Join(b.cfg.ToolLogDir, fmt.Sprintf("%s-%s.log", pass, id))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, err
	}
	return path, file, nil
}

func (b *Blender) recordStart(ctx context.Context, logger *slog.Logger, launch ledger.Launch) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.RecordStart(ctx, launch); err != nil {
		logging.WarnWithContext(logger, "ledger insert failed; launch not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "launch missing from renderq history"),
		)
	}
}

func (b *Blender) recordFinish(ctx context.Context, logger *slog.Logger, id string, code int, runErr error) {
	if b.recorder == nil {
		return
	}
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	if err := b.recorder.RecordFinish(context.WithoutCancel(ctx), id, b.now(), code, errText); err != nil {
		logging.WarnWithContext(logger, "ledger update failed; launch left as running", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "renderq history shows a stale running launch"),
		)
	}
}

func launchKey(pass ledger.Pass, ref renderqueue.ShotRef, quality renderqueue.Quality) string {
	return formatKey(pass, ref.Category, ref.ID, ref.Slate, quality.String())
}

func ledgerKey(launch ledger.Launch) string {
	return formatKey(launch.Pass, launch.Category, launch.ShotID, launch.Slate, launch.Quality)
}

func formatKey(pass ledger.Pass, category, id string, slate int, quality string) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", pass, category, id, slate, quality)
}

func commandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, part := range append([]string{binary}, args...) {
		if part == "" || strings.ContainsAny(part, " \t\"'") {
			part = strconv.Quote(part)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// IsAlreadyRunning reports whether err is a refused duplicate launch.
func IsAlreadyRunning(err error) bool {
	return errors.Is(err, ErrAlreadyRunning)
}
