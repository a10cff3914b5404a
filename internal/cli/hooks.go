package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/solvent/pkg/observability"
)

// spinnerHooks mirrors resolution progress onto the spinner and the debug
// log. One instance lives for the duration of a single resolve run.
type spinnerHooks struct {
	spinner *Spinner
	logger  *log.Logger
	passes  int

	mu     sync.Mutex
	pass   int
	probes int
}

var _ observability.SolverHooks = (*spinnerHooks)(nil)

func newSpinnerHooks(spinner *Spinner, logger *log.Logger, passes int) *spinnerHooks {
	return &spinnerHooks{spinner: spinner, logger: logger, passes: passes}
}

func (h *spinnerHooks) OnPassStart(_ context.Context, indexURL string, requirements int) {
	h.mu.Lock()
	h.pass++
	h.probes = 0
	pass := h.pass
	h.mu.Unlock()

	h.spinner.UpdateMessage(fmt.Sprintf("Pass %d/%d: resolving %d requirements against %s",
		pass, h.passes, requirements, indexURL))
	h.logger.Debug("pass started", "index", indexURL, "requirements", requirements)
}

func (h *spinnerHooks) OnPassComplete(_ context.Context, indexURL string, packages, errCount int, duration time.Duration) {
	h.logger.Debug("pass complete",
		"index", indexURL, "packages", packages, "errors", errCount,
		"took", duration.Round(time.Millisecond))
}

func (h *spinnerHooks) OnProbeStart(_ context.Context, name, version string) {
	h.mu.Lock()
	h.probes++
	pass, probes := h.pass, h.probes
	h.mu.Unlock()

	h.spinner.UpdateMessage(fmt.Sprintf("Pass %d/%d: probing %s==%s (package %d)",
		pass, h.passes, name, version, probes))
}

func (h *spinnerHooks) OnProbeComplete(_ context.Context, name, version string, duration time.Duration, err error) {
	if err != nil {
		h.logger.Debug("probe failed", "package", name, "version", version, "error", err)
		return
	}
	h.logger.Debug("probe complete",
		"package", name, "version", version, "took", duration.Round(time.Millisecond))
}
