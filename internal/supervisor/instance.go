package supervisor

import (
	"os/exec"
	"time"
)

// Instance is the record of the one running sidecar process. It exists
// only while the child is believed alive and is exclusively owned by the
// Supervisor; every code path that drops it must also attempt to kill the
// process and wait for exit.
type Instance struct {
	// cmd is the live process handle when this supervisor spawned the
	// child itself. It is nil for instances adopted from a state file
	// left by a previous relayctl invocation.
	cmd *exec.Cmd
	// done is closed by the waiter goroutine once cmd.Wait returns.
	// Nil for adopted instances.
	done chan struct{}

	PID                  int
	Port                 int
	ExecutablePath       string
	DataDir              string
	LogPath              string
	CredentialSourcePath string
	APIKey               string
	StartedAt            time.Time
}

// newSpawnedInstance wraps a started command. The waiter goroutine is the
// instance's lazy liveness source: it reaps the child and closes done.
func newSpawnedInstance(cmd *exec.Cmd) *Instance {
	inst := &Instance{
		cmd:       cmd,
		done:      make(chan struct{}),
		PID:       cmd.Process.Pid,
		StartedAt: time.Now(),
	}
	go func() {
		cmd.Wait()
		close(inst.done)
	}()
	return inst
}

// exited reports whether a spawned child has been reaped. Always false
// for adopted instances, whose liveness is checked by pid inspection.
func (i *Instance) exited() bool {
	if i.done == nil {
		return false
	}
	select {
	case <-i.done:
		return true
	default:
		return false
	}
}

// adopted reports whether this instance came from a state file rather
// than a spawn in this process.
func (i *Instance) adopted() bool {
	return i.cmd == nil
}
