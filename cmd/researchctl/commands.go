package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"research-assistant-be/internal/config"
	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/entity"
	"research-assistant-be/internal/pkg/locker"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/mailer"
	"research-assistant-be/internal/repository/memory"
	"research-assistant-be/internal/repository/unitofwork"
	"research-assistant-be/internal/service"
	"research-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const commandTimeout = 2 * time.Minute

var (
	cleanupDays  int
	pendingLimit int
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", -1, "Delete sessions idle for more than this many days (default: MEMORY_CLEANUP_DAYS)")
	pendingCmd.Flags().IntVar(&pendingLimit, "limit", 20, "Maximum approvals to list")
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete research sessions past the retention window",
	Long: `Delete sessions whose last update is older than the retention window,
together with their approval rows. Running it twice is harmless.

Examples:
  researchctl cleanup
  researchctl cleanup --days 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		days := cfg.Pipeline.MemoryCleanupDays
		if cleanupDays >= 0 {
			days = cleanupDays
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		n, err := store.CleanupSessions(ctx, days)
		if err != nil {
			return err
		}
		printer(cmd).ok("Deleted %d session(s) idle for more than %d day(s)", n, days)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <researcher-id>",
	Short: "Show stored findings and session counts for a researcher",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(config.Load())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		stats, err := store.ResearcherStats(ctx, args[0])
		if err != nil {
			return err
		}
		p := printer(cmd)
		p.title("Researcher %s", stats.ResearcherId)
		p.line("sessions:    %d", stats.SessionCount)
		p.line("summaries:   %d", stats.LiteratureCount)
		p.line("comparisons: %d", stats.ComparisonCount)
		if stats.LastActivity != nil {
			p.line("last active: %s", stats.LastActivity.Format(time.RFC3339))
		}
		return nil
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Mail the reviewer mailbox a count of pending approvals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		approvals, err := openApprovals(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		n, err := approvals.SendPendingDigest(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			printer(cmd).warn("No pending approvals, nothing sent")
			return nil
		}
		printer(cmd).ok("Digest for %d pending approval(s) sent to %s", n, cfg.SMTP.ReviewerEmail)
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending approvals in review order",
	RunE: func(cmd *cobra.Command, args []string) error {
		approvals, err := openApprovals(config.Load())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		list, err := approvals.ListPending(ctx, dto.PendingApprovalsQuery{Limit: pendingLimit})
		if err != nil {
			return err
		}
		p := printer(cmd)
		if len(list) == 0 {
			p.ok("Review queue is empty")
			return nil
		}
		for _, a := range list {
			p.approval(a)
		}
		return nil
	},
}

func openStore(cfg *config.Config) (service.IMemoryStore, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	// A CLI run is short-lived, so the cache janitor stays off.
	return service.NewMemoryStore(
		unitofwork.NewRepositoryFactory(db),
		memory.NewSessionCache(time.Minute, 0),
		logger.NewNopLogger(),
		nil,
	), nil
}

func openApprovals(cfg *config.Config) (service.IApprovalService, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.NewNopLogger()
	mail := mailer.NewEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Email, cfg.SMTP.Password, cfg.SMTP.SenderName)
	return service.NewApprovalService(
		store,
		locker.NewLocalLocker(),
		service.NewEventPublisher(nil, log),
		nil,
		mail,
		cfg.SMTP.ReviewerEmail,
		log,
		log,
		nil,
	), nil
}

const redacted = "[redacted]"

// renderConfig marshals cfg with credentials blanked out.
func renderConfig(cfg *config.Config) ([]byte, error) {
	c := *cfg
	if c.Database.Connection != "" {
		c.Database.Connection = redacted
	}
	if c.SMTP.Password != "" {
		c.SMTP.Password = redacted
	}
	if c.Ai.HuggingFaceAPIKey != "" {
		c.Ai.HuggingFaceAPIKey = redacted
	}
	return yaml.Marshal(c)
}

type out struct {
	w       io.Writer
	okC     *color.Color
	warnC   *color.Color
	titleC  *color.Color
	urgentC *color.Color
}

func printer(cmd *cobra.Command) *out {
	o := &out{
		w:       cmd.OutOrStdout(),
		okC:     color.New(color.FgGreen),
		warnC:   color.New(color.FgYellow),
		titleC:  color.New(color.FgCyan, color.Bold),
		urgentC: color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{o.okC, o.warnC, o.titleC, o.urgentC} {
			c.DisableColor()
		}
	}
	return o
}

func (o *out) ok(format string, args ...interface{}) {
	o.okC.Fprintf(o.w, format+"\n", args...)
}

func (o *out) warn(format string, args ...interface{}) {
	o.warnC.Fprintf(o.w, format+"\n", args...)
}

func (o *out) title(format string, args ...interface{}) {
	o.titleC.Fprintf(o.w, format+"\n", args...)
}

func (o *out) line(format string, args ...interface{}) {
	fmt.Fprintf(o.w, format+"\n", args...)
}

func (o *out) approval(a *dto.ApprovalResponse) {
	c := o.warnC
	switch a.Priority {
	case entity.ApprovalPriorityUrgent:
		c = o.urgentC
	case entity.ApprovalPriorityLow:
		c = o.okC
	}
	c.Fprintf(o.w, "%-7s", a.Priority)
	fmt.Fprintf(o.w, " %s  %-20s conf=%.2f  session=%s  age=%s\n",
		a.Id, a.ContentType, a.Confidence, a.SessionId, time.Since(a.CreatedAt).Round(time.Minute))
}
