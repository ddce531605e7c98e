package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitpal/internal/constants"
	"github.com/julianstephens/habitpal/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrRunning is returned when another habitpal server holds the lock.
var ErrRunning = errors.New("habitpal server is already running")

// Lock records which process serves a database. The file holds "addr|pid".
type Lock struct {
	path string
	pid  int
}

// Path returns the lock file location for a data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, constants.ServerLockfileName)
}

// Acquire writes the lock file for addr. A lock left by a process that is gone, or that is not
// habitpal, is taken over.
func Acquire(path, addr string) (*Lock, error) {
	if owner, err := Read(path); err == nil {
		if owner.Alive() {
			return nil, fmt.Errorf("%w (pid %d, listening on %s)", ErrRunning, owner.PID, owner.Addr)
		}
		logger.Warn("Replacing stale server lock", "path", path, "pid", owner.PID)
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Replacing unreadable server lock", "path", path, "error", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	pid := getpidFunc()
	content := fmt.Sprintf("%s|%d\n", addr, pid)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lock file if it still belongs to this lock.
func (l *Lock) Release() error {
	owner, err := Read(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if owner.PID != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Owner is the content of a lock file.
type Owner struct {
	Addr string
	PID  int
}

// Alive reports whether the owning process still runs and is a habitpal binary.
func (o Owner) Alive() bool {
	process, err := findProcessFunc(o.PID)
	if err != nil || process == nil {
		return false
	}
	return strings.HasPrefix(process.Executable(), constants.AppName)
}

// Read parses the lock file at path.
func Read(path string) (Owner, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, err
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return Owner{}, errors.New("lockfile is malformed")
	}
	addr := strings.TrimSpace(parts[0])
	if addr == "" {
		return Owner{}, errors.New("address in lockfile is empty")
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil || pid <= 0 {
		return Owner{}, errors.New("invalid process ID in lockfile")
	}
	return Owner{Addr: addr, PID: pid}, nil
}
