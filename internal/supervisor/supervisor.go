// Package supervisor owns the lifecycle of the single relay sidecar
// instance: resolving the runtime binary, materializing the credential
// snapshot, arbitrating the TCP port, spawning and tracking the child
// process, and reporting live health.
//
// At most one Instance exists at any time. The slot is guarded by a
// mutex held only for in-memory mutation; resolution, materialization,
// arbitration, and the spawn itself happen outside the lock, so
// concurrent Status/Stop calls observe either the prior state or the
// fully-formed new one.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/relaykit/relayctl/internal/accounts"
	"github.com/relaykit/relayctl/internal/config"
	"github.com/relaykit/relayctl/internal/errors"
	"github.com/relaykit/relayctl/internal/logging"
	"github.com/relaykit/relayctl/internal/paths"
	"github.com/relaykit/relayctl/internal/portguard"
	"github.com/relaykit/relayctl/internal/runtime"
)

// stopGracePeriod bounds the wait for a spawned child to exit after the
// graceful termination signal before it is killed.
const stopGracePeriod = 5 * time.Second

// Params are the per-start overrides accepted by Start. Zero values fall
// back to configuration defaults.
type Params struct {
	// Path overrides runtime resolution with an executable or project
	// directory.
	Path           string
	Port           int
	APIKey         string
	AdminKey       string
	DataDir        string
	Region         string
	RuntimeVersion string
	ProxyURL       string
}

// Status is the composite view returned by every operation.
type Status struct {
	Running            bool   `json:"running"`
	Healthy            bool   `json:"healthy"`
	PID                int    `json:"pid,omitempty"`
	Port               int    `json:"port,omitempty"`
	URL                string `json:"url,omitempty"`
	ExecutablePath     string `json:"executablePath,omitempty"`
	DataDir            string `json:"dataDir,omitempty"`
	LogPath            string `json:"logPath,omitempty"`
	SharedAccountsFile string `json:"sharedAccountsFile,omitempty"`
	APIKey             string `json:"apiKey,omitempty"`
}

// Supervisor owns the single running instance's state.
type Supervisor struct {
	mu       sync.Mutex
	instance *Instance

	cfg       *config.Config
	resolver  *runtime.Resolver
	guard     *portguard.Guard
	inspector portguard.Inspector
	prober    *Prober
	logger    *logging.Logger
}

// New creates a Supervisor with platform-backed dependencies.
func New(cfg *config.Config, logger *logging.Logger) (*Supervisor, error) {
	guard, err := portguard.New(cfg.PortGuard, logger)
	if err != nil {
		return nil, err
	}
	return NewWithDeps(cfg, runtime.NewResolver(), guard, portguard.NewSystemInspector(), NewProber(cfg.Health), logger), nil
}

// NewWithDeps creates a Supervisor with injected dependencies, for tests.
func NewWithDeps(cfg *config.Config, resolver *runtime.Resolver, guard *portguard.Guard, inspector portguard.Inspector, prober *Prober, logger *logging.Logger) *Supervisor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Supervisor{
		cfg:       cfg,
		resolver:  resolver,
		guard:     guard,
		inspector: inspector,
		prober:    prober,
		logger:    logger.WithComponent("supervisor"),
	}
}

// Start launches a new sidecar instance. It fails with ErrAlreadyRunning
// when an instance is recorded and still alive (a lazy liveness check
// clears stale records first). Any failure along the pipeline aborts
// immediately: the externally observable state stays Idle and nothing is
// recorded. The spawned handle is recorded immediately after a
// successful spawn so no later step can leak the child.
func (s *Supervisor) Start(ctx context.Context, params Params) (*Status, error) {
	dataDir := s.dataDirFor(params.DataDir)

	s.mu.Lock()
	s.adoptLocked(dataDir)
	s.reapLocked()
	if s.instance != nil {
		s.mu.Unlock()
		return nil, errors.ErrAlreadyRunning
	}
	s.mu.Unlock()

	execPath, err := s.resolver.Resolve(firstNonEmpty(params.Path, s.cfg.Paths.RuntimePath))
	if err != nil {
		return nil, err
	}

	port := params.Port
	if port == 0 {
		port = s.cfg.Server.Port
	}
	region := firstNonEmpty(params.Region, s.cfg.Server.Region)
	apiKey := firstNonEmpty(params.APIKey, s.cfg.Keys.APIKey)
	if apiKey == "" {
		apiKey = "sk-" + uuid.NewString()
	}
	adminKey := firstNonEmpty(params.AdminKey, s.cfg.Keys.AdminKey)
	if adminKey == "" {
		adminKey = "admin-" + uuid.NewString()
	}

	launch := &accounts.LaunchConfig{
		Host:              s.cfg.Server.Host,
		Port:              port,
		Region:            region,
		RuntimeVersion:    firstNonEmpty(params.RuntimeVersion, s.cfg.Server.RuntimeVersion),
		APIKey:            apiKey,
		AdminAPIKey:       adminKey,
		ProxyURL:          strings.TrimSpace(firstNonEmpty(params.ProxyURL, s.cfg.Server.ProxyURL)),
		LoadBalancingMode: s.cfg.Server.LoadBalancingMode,
		TLSBackend:        s.cfg.Server.TLSBackend,
	}

	storePath := s.cfg.Paths.AccountStore
	credentials, err := accounts.BuildCredentials(storePath, region)
	if err != nil {
		return nil, err
	}
	configPath, credentialsPath, err := accounts.WriteSnapshot(dataDir, launch, credentials)
	if err != nil {
		return nil, err
	}

	result, err := s.guard.Reclaim(port, []string{execPath, dataDir})
	if err != nil {
		return nil, err
	}
	if result.Skipped {
		s.logger.Warn("port ownership check skipped on this platform", "port", port)
	}

	logPath := paths.SidecarLog(dataDir)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file failed")
	}

	cmd := exec.Command(execPath, "--config", configPath, "--credentials", credentialsPath)
	cmd.Env = append(os.Environ(), "RUST_LOG=info")
	cmd.Dir = dataDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, errors.Wrapf(errors.ErrSpawnFailed, "runtime %q: %v", execPath, err)
	}
	// The child holds its own descriptor now.
	logFile.Close()

	inst := newSpawnedInstance(cmd)
	inst.Port = port
	inst.ExecutablePath = execPath
	inst.DataDir = dataDir
	inst.LogPath = logPath
	inst.CredentialSourcePath = storePath
	inst.APIKey = apiKey

	s.mu.Lock()
	s.reapLocked()
	if s.instance != nil {
		// A concurrent Start recorded its instance between the idle
		// check and here. The slot stays with the winner; this child
		// must not outlive its failed recording.
		s.mu.Unlock()
		s.terminate(inst)
		return nil, errors.ErrAlreadyRunning
	}
	s.instance = inst
	s.mu.Unlock()

	if err := writeState(inst); err != nil {
		// The in-memory record still guarantees teardown; a later stop
		// without it falls back to signature-based port arbitration.
		s.logger.Warn("failed to persist instance state", "error", err)
	}

	s.logger.Info("relay sidecar started",
		"pid", inst.PID, "port", port, "runtime", execPath, "credentials", len(credentials))

	return s.Status(ctx, dataDir)
}

// Status performs the lazy liveness check and returns the composite
// view. A non-empty dataDir names the data directory whose state file
// to adopt from; empty falls back to the configured one. The health
// probe runs without the lock, against a snapshot of the instance's
// immutable fields. Status never fails because the sidecar is
// unhealthy.
func (s *Supervisor) Status(ctx context.Context, dataDir string) (*Status, error) {
	s.mu.Lock()
	s.adoptLocked(s.dataDirFor(dataDir))
	s.reapLocked()
	if s.instance == nil {
		s.mu.Unlock()
		return &Status{Running: false}, nil
	}
	snapshot := *s.instance
	s.mu.Unlock()

	healthy := s.prober.Healthy(ctx, snapshot.Port, snapshot.APIKey)

	return &Status{
		Running:            true,
		Healthy:            healthy,
		PID:                snapshot.PID,
		Port:               snapshot.Port,
		URL:                fmt.Sprintf("http://127.0.0.1:%d", snapshot.Port),
		ExecutablePath:     snapshot.ExecutablePath,
		DataDir:            snapshot.DataDir,
		LogPath:            snapshot.LogPath,
		SharedAccountsFile: snapshot.CredentialSourcePath,
		APIKey:             snapshot.APIKey,
	}, nil
}

// Stop unconditionally clears any recorded instance, terminating its
// process, then re-runs port arbitration with no ownership context
// beyond the generic signatures. The sweep catches children that kept
// running after the supervising process restarted and lost its record.
// Stop with nothing running is an idempotent no-op. dataDir selects the
// state file to adopt from, like Status.
func (s *Supervisor) Stop(ctx context.Context, port int, dataDir string) (*Status, error) {
	if port == 0 {
		port = s.cfg.Server.Port
	}

	s.mu.Lock()
	s.adoptLocked(s.dataDirFor(dataDir))
	inst := s.instance
	s.instance = nil
	s.mu.Unlock()

	if inst != nil {
		s.terminate(inst)
		removeState(inst.DataDir)
	}

	if _, err := s.guard.Reclaim(port, nil); err != nil {
		return nil, err
	}

	return s.Status(ctx, dataDir)
}

// Shutdown tears down the recorded instance without the port sweep. Used
// on supervisor exit so the child is never silently leaked.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	inst := s.instance
	s.instance = nil
	s.mu.Unlock()

	if inst == nil {
		return nil
	}
	s.terminate(inst)
	removeState(inst.DataDir)
	return nil
}

// terminate kills the instance's process, graceful then forceful, and
// waits for exit.
func (s *Supervisor) terminate(inst *Instance) {
	if inst.cmd != nil {
		if inst.exited() {
			return
		}
		s.logger.Info("stopping relay sidecar", "pid", inst.PID)
		if err := inst.cmd.Process.Signal(os.Interrupt); err != nil {
			s.logger.Warn("graceful signal failed", "pid", inst.PID, "error", err)
		}
		select {
		case <-inst.done:
		case <-time.After(stopGracePeriod):
			s.logger.Warn("sidecar did not exit gracefully, killing", "pid", inst.PID)
			inst.cmd.Process.Kill()
			<-inst.done
		}
		return
	}

	// Adopted instance: no handle, signal by pid. The pid is only
	// signaled while its command line still classifies as this
	// instance's sidecar; anything else is a stale record, not a
	// process of ours.
	if !s.adoptedAlive(inst) {
		return
	}
	s.logger.Info("stopping adopted relay sidecar", "pid", inst.PID)
	if err := s.inspector.Terminate(inst.PID, false); err != nil {
		s.logger.Warn("graceful terminate failed", "pid", inst.PID, "error", err)
	}
	deadline := time.Now().Add(stopGracePeriod)
	for time.Now().Before(deadline) {
		if !s.adoptedAlive(inst) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	s.inspector.Terminate(inst.PID, true)
}

// adoptLocked fills an empty slot from the persisted state file, so a
// fresh relayctl invocation sees the instance a prior one spawned.
// Caller holds the lock.
func (s *Supervisor) adoptLocked(dataDir string) {
	if s.instance != nil {
		return
	}
	inst, err := readState(dataDir)
	if err != nil {
		s.logger.Warn("failed to read instance state", "error", err)
		return
	}
	if inst != nil {
		s.instance = inst
	}
}

// reapLocked is the lazy liveness check: a recorded instance whose
// process is gone is cleared, together with its state file. Caller holds
// the lock.
func (s *Supervisor) reapLocked() {
	if s.instance == nil {
		return
	}
	alive := true
	if s.instance.adopted() {
		alive = s.adoptedAlive(s.instance)
	} else if s.instance.exited() {
		alive = false
	}
	if !alive {
		s.logger.Info("relay sidecar exited on its own", "pid", s.instance.PID)
		removeState(s.instance.DataDir)
		s.instance = nil
	}
}

// adoptedAlive reports whether the recorded pid still resolves to a
// process whose command line matches the instance's launch markers or a
// known runtime signature. The OS recycles pids, so an inspectable pid
// alone proves nothing about whose process it is; a non-matching
// command line marks the record stale. On platforms without process
// inspection this is always false.
func (s *Supervisor) adoptedAlive(inst *Instance) bool {
	return s.guard.Recognizes(inst.PID, []string{inst.ExecutablePath, inst.DataDir})
}

func (s *Supervisor) dataDirFor(override string) string {
	return firstNonEmpty(override, s.cfg.Paths.DataDir, paths.DefaultRuntimeDataDir())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
