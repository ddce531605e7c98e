package system

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitpal/internal/backup"
	"github.com/julianstephens/habitpal/internal/cli"
	"github.com/julianstephens/habitpal/internal/progress"
)

type DoctorCmd struct{}

type doctorCheck struct {
	name    string
	run     func(ctx *cli.Context) error
	needsDB bool
	warning bool
}

var doctorChecks = []doctorCheck{
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Backups present", run: checkBackupsPresent, warning: true},
	{name: "Data integrity", run: checkDataIntegrity, needsDB: true},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true

	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, check := range doctorChecks {
		if check.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", check.name)
			continue
		}
		err := check.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", check.name)
		case check.warning:
			ctx.Printf("⚠ %s: WARNING\n", check.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", check.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

// checkDBReachable loads the store and pings it. A schema version mismatch still leaves the
// connection open, so it is reported by the schema check instead.
func checkDBReachable(ctx *cli.Context) error {
	loadErr := ctx.Store.Load(ctx.Context())
	if err := ctx.Store.Ping(ctx.Context()); err != nil {
		if loadErr != nil {
			return fmt.Errorf("failed to load database: %w", loadErr)
		}
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d, run 'habitpal migrate'", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	path, ok := ctx.SQLitePath()
	if !ok {
		return nil
	}

	backups, err := backup.NewManager(path).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'habitpal backup create'")
	}
	return nil
}

func checkDataIntegrity(ctx *cli.Context) error {
	issues, err := ctx.Service.Audit(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to audit data: %w", err)
	}
	if len(issues) == 0 {
		return nil
	}

	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return fmt.Errorf("%d issue(s) found:\n   - %s", len(issues), strings.Join(lines, "\n   - "))
}

func checkClockTimezone(ctx *cli.Context) error {
	if _, err := progress.ParseZone(ctx.Config.Timezone); err != nil {
		return fmt.Errorf("default timezone %q is invalid: %w", ctx.Config.Timezone, err)
	}
	if time.Now().Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", time.Now().Format(time.RFC3339))
	}
	return nil
}
