package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/storage/boltdb"
)

var sessionsPurged = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "voortgang",
	Name:      "sessions_purged_total",
	Help:      "Expired sessions removed from the session store.",
})

func init() {
	prometheus.MustRegister(sessionsPurged)
}

func purgeSessions(store *boltdb.SessionStore, logger core.Logger) {
	n, err := store.PurgeExpired(time.Now().UTC())
	if err != nil {
		logger.Warn("purging expired sessions", err)
		return
	}
	sessionsPurged.Add(float64(n))
	if n > 0 {
		logger.Info(fmt.Sprintf("purged %d expired sessions", n))
	}
}

// startJobs schedules the background maintenance. The returned scheduler must be stopped on shutdown.
func startJobs(conf *core.Config, store *boltdb.SessionStore, logger core.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(conf.Session.PurgeSchedule, func() { purgeSessions(store, logger) }); err != nil {
		return nil, errors.Wrapf(err, "scheduling session purge %q", conf.Session.PurgeSchedule)
	}
	c.Start()
	return c, nil
}
