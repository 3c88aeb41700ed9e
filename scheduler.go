package tripagent

import (
	"fmt"
	"log"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/Desarso/tripagent/sessions"
)

// PolicyRefreshSchedule fires at midnight so the date in the policy stays current.
const PolicyRefreshSchedule = "0 0 * * *"

// Scheduler runs the periodic jobs of a long-running server.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: log.New(os.Stdout, "[SCHEDULER] ", log.LstdFlags),
	}
}

// SchedulePolicyRefresh registers the daily policy refresh.
func (s *Scheduler) SchedulePolicyRefresh(policy *sessions.Policy) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(PolicyRefreshSchedule, func() {
		policy.Refresh()
		s.logger.Printf("Policy refreshed for %s", policy.Now().Format("2006-01-02"))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule policy refresh: %w", err)
	}
	return id, nil
}

// Entries exposes the registered jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Printf("Started with %d jobs", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
