/*
Package issuer drives the external certificate issuance client.

The issuer owns the two disruptive operations on the host: standalone
issuance for pending certificate requests, and renewal. Both run the
external client with the web service's ports yielded; the cheap renewal
check runs without yielding.

# Architecture

	┌──────────────── ISSUANCE ENGINE ────────────────┐
	│                                                 │
	│  CreateCertificates(requests)                   │
	│   for each request, in order:                   │
	│    ┌─────────────────────────────────────┐      │
	│    │ any live dir exists?  → skip        │      │
	│    │ (never overwrite an existing cert)  │      │
	│    └──────────────┬──────────────────────┘      │
	│    ┌──────────────▼──────────────────────┐      │
	│    │ WithYielded:                        │      │
	│    │  certonly --standalone --agree-tos  │      │
	│    │   --non-interactive -d ...          │      │
	│    │   (--email | --register-unsafely-   │      │
	│    │    without-email)                   │      │
	│    └──────────────┬──────────────────────┘      │
	│     success → active "registered <name>"        │
	│     failure → blocked + output, ABORT batch     │
	│                                                 │
	│  RenewalDue()    renew --agree-tos, no yield,   │
	│                  false iff "No renewals were    │
	│                  attempted." in output          │
	│  Renew(fqdn)     renew --agree-tos, yielded     │
	└─────────────────────────────────────────────────┘

# Failure Semantics

  - Exit code 0 means success; anything else is a failure whose
    combined output is captured into the blocked status message.
  - A batch aborts at the first hard failure. Earlier requests that
    already succeeded keep their certificate directories.
  - Nothing propagates as an unhandled fault: every client failure is
    translated into status plus log output at the point of invocation.

# Usage

	is := issuer.New(issuer.Config{
		ClientBin: "letsencrypt",
		LiveDir:   "/etc/letsencrypt/live",
		Service:   svc,
		Reporter:  reporter,
	})

	ok := is.CreateCertificates(ctx, requests)

	if is.RenewalDue(ctx) {
		err := is.Renew(ctx, fqdn)
	}

# Integration Points

  - pkg/service: WithYielded wraps every disruptive client invocation
  - pkg/lifecycle: Orchestrates when issuance and renewal happen
  - pkg/metrics: Attempt and renewal counters by outcome
  - Tests inject a fake Runner instead of executing the client
*/
package issuer
