package jobs

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/accounthub/accounthub/internal/denylist"
)

const maxDenylistBody = 5 << 20

// DenylistRefreshJob pulls the upstream disposable-domain list and loads it
// into Redis.
type DenylistRefreshJob struct {
	checker *denylist.Checker
	client  *http.Client
	logger  *slog.Logger
}

// NewDenylistRefreshJob constructs the job.
func NewDenylistRefreshJob(checker *denylist.Checker, logger *slog.Logger) *DenylistRefreshJob {
	return &DenylistRefreshJob{
		checker: checker,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Handle processes TaskTypeDenylistRefresh tasks.
func (j *DenylistRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DenylistRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.SourceURL == "" {
		return asynq.SkipRetry
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.SourceURL, nil)
	if err != nil {
		return asynq.SkipRetry
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch denylist: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch denylist: unexpected status %d", resp.StatusCode)
	}

	domains := parseDomains(io.LimitReader(resp.Body, maxDenylistBody))
	if err := j.checker.Refresh(ctx, domains); err != nil {
		return err
	}
	j.logger.Info("denylist refreshed", slog.Int("domains", len(domains)))
	return nil
}

func parseDomains(r io.Reader) []string {
	var domains []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	return domains
}
