/*
Package cron installs the periodic renewal trigger in the root crontab.

The renewal job fires twice a day at a minute randomized once per install,
following the issuance backend's guidance: many independently scheduled
instances must not all hit the backend at the same minute.

# Job Ownership

The job line carries a fixed comment tag:

	37 6,18 * * * /usr/bin/certkeep renew --request # Renew Let's Encrypt [managed by certkeep]

Invariants:

  - At most one tagged job exists at a time
  - Arm always removes existing tagged jobs before installing, so
    re-arming is idempotent: no duplicates, no orphans
  - Disarm removes only tagged jobs; foreign crontab lines are preserved
    byte for byte

# Deferred Execution

The job's command does not renew anything itself. It only drops the
renewal-requested sentinel file in the data directory; the renewal runs
on the daemon's next event cycle. This keeps a single code path
responsible for the stop/renew/restart sequence, keeps the timer
context trivial, and avoids contending for the database lock the
daemon holds.

# Usage

	sched := cron.NewScheduler("/usr/bin/certkeep renew --request")

	err := sched.Arm(ctx)    // disarm + install at a fresh random minute
	err = sched.Disarm(ctx)  // remove the tagged job

# Integration Points

  - pkg/lifecycle: Re-arms the job after every successful registration
  - cmd/certkeep: `certkeep renew --request` is the installed command
  - Tests inject an in-memory Crontab backend
*/
package cron
