package issuer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certkeep/certkeep/pkg/service"
	"github.com/certkeep/certkeep/pkg/types"
)

// fakeReporter captures status reports in order.
type fakeReporter struct {
	states   []types.StatusState
	messages []string
}

func (f *fakeReporter) Report(state types.StatusState, message string) {
	f.states = append(f.states, state)
	f.messages = append(f.messages, message)
}

// fakeClient replies to issuance client invocations, recording each
// command line. failOn makes invocations whose command line contains
// the fragment exit non-zero with the given output.
type fakeClient struct {
	calls  []string
	output string
	failOn string
}

func (f *fakeClient) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmdline := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, cmdline)
	if f.failOn != "" && strings.Contains(cmdline, f.failOn) {
		return []byte(f.output), errors.New("exit status 1")
	}
	return []byte(f.output), nil
}

// stoppedService returns a controller whose service is not running, so
// WithYielded never issues systemctl commands.
func stoppedService() *service.Controller {
	return service.NewControllerWithRunner("nginx",
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, errors.New("inactive")
		})
}

func newTestIssuer(t *testing.T, client *fakeClient, rep *fakeReporter) *Issuer {
	t.Helper()
	return New(Config{
		ClientBin: "letsencrypt",
		LiveDir:   t.TempDir(),
		Service:   stoppedService(),
		Reporter:  rep,
		Run:       client.run,
	})
}

func req(fqdns ...string) *types.CertificateRequest {
	return &types.CertificateRequest{ID: "req-1", FQDNs: fqdns}
}

func TestCreateCertificates_WithoutEmail(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	ok := is.CreateCertificates(context.Background(), []*types.CertificateRequest{req("x.example.com")})
	require.True(t, ok)

	require.Len(t, client.calls, 1)
	assert.Equal(t,
		"letsencrypt certonly --standalone --agree-tos --non-interactive -d x.example.com --register-unsafely-without-email",
		client.calls[0])
	assert.Equal(t, []types.StatusState{types.StatusActive}, rep.states)
	assert.Equal(t, "registered x.example.com", rep.messages[0])
}

func TestCreateCertificates_WithEmailAndMultipleNames(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	request := req("a.example.com", "www.a.example.com")
	request.ContactEmail = "ops@example.com"

	ok := is.CreateCertificates(context.Background(), []*types.CertificateRequest{request})
	require.True(t, ok)

	require.Len(t, client.calls, 1)
	assert.Equal(t,
		"letsencrypt certonly --standalone --agree-tos --non-interactive -d a.example.com -d www.a.example.com --email ops@example.com",
		client.calls[0])
}

func TestCreateCertificates_ExistingDirectorySkipsInvocation(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	require.NoError(t, os.MkdirAll(filepath.Join(is.liveDir, "x.example.com"), 0755))

	ok := is.CreateCertificates(context.Background(), []*types.CertificateRequest{req("x.example.com")})
	require.True(t, ok)

	assert.Empty(t, client.calls, "no external invocation for an already satisfied request")
	assert.Empty(t, rep.states, "status must not change")
}

func TestCreateCertificates_AnyExistingNameSkipsWholeRequest(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	// Only the second name has a certificate; the request is still
	// treated as satisfied.
	require.NoError(t, os.MkdirAll(filepath.Join(is.liveDir, "www.x.example.com"), 0755))

	ok := is.CreateCertificates(context.Background(),
		[]*types.CertificateRequest{req("x.example.com", "www.x.example.com")})
	require.True(t, ok)
	assert.Empty(t, client.calls)
}

func TestCreateCertificates_FirstFailureAbortsBatch(t *testing.T) {
	client := &fakeClient{output: "some diagnostic", failOn: "-d b.example.com"}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	batch := []*types.CertificateRequest{
		req("a.example.com"),
		req("b.example.com"),
		req("c.example.com"),
	}

	ok := is.CreateCertificates(context.Background(), batch)
	assert.False(t, ok)

	// a succeeded, b failed, c was never attempted.
	require.Len(t, client.calls, 2)
	assert.Contains(t, client.calls[0], "-d a.example.com")
	assert.Contains(t, client.calls[1], "-d b.example.com")

	require.Len(t, rep.states, 2)
	assert.Equal(t, types.StatusActive, rep.states[0])
	assert.Equal(t, types.StatusBlocked, rep.states[1])
	assert.Contains(t, rep.messages[1], "some diagnostic")
}

func TestCreateCertificates_EmptyBatchIsNoOp(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	assert.True(t, is.CreateCertificates(context.Background(), nil))
	assert.Empty(t, client.calls)
	assert.Empty(t, rep.states)
}

func TestRenewalDue(t *testing.T) {
	tests := []struct {
		name   string
		output string
		failOn string
		want   bool
	}{
		{
			name:   "nothing due",
			output: "Processing /etc/letsencrypt/renewal/x.example.com.conf\nNo renewals were attempted.",
			want:   false,
		},
		{
			name:   "renewal due",
			output: "Processing /etc/letsencrypt/renewal/x.example.com.conf\nrenewing...",
			want:   true,
		},
		{
			// The check runs without yielding the ports; a bind
			// failure still proves a renewal was attempted.
			name:   "check fails because ports are bound",
			output: "Problem binding to port 80",
			failOn: "renew",
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{output: tt.output, failOn: tt.failOn}
			is := newTestIssuer(t, client, &fakeReporter{})

			assert.Equal(t, tt.want, is.RenewalDue(context.Background()))
			require.Len(t, client.calls, 1)
			assert.Equal(t, "letsencrypt renew --agree-tos", client.calls[0])
		})
	}
}

func TestRenew_Success(t *testing.T) {
	client := &fakeClient{output: "Congratulations, all renewals succeeded"}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	err := is.Renew(context.Background(), "x.example.com")
	require.NoError(t, err)

	assert.Equal(t, []types.StatusState{types.StatusActive}, rep.states)
	assert.Equal(t, "registered x.example.com", rep.messages[0])
}

func TestRenew_FailureReportsBlockedWithOutput(t *testing.T) {
	client := &fakeClient{output: "Attempting to renew cert produced an unexpected error", failOn: "renew"}
	rep := &fakeReporter{}
	is := newTestIssuer(t, client, rep)

	err := is.Renew(context.Background(), "x.example.com")
	assert.Error(t, err)

	require.Len(t, rep.states, 1)
	assert.Equal(t, types.StatusBlocked, rep.states[0])
	assert.Contains(t, rep.messages[0], "unexpected error")
}

// runningServiceWithStopError returns a controller whose service is
// active but cannot be stopped.
func runningServiceWithStopError() *service.Controller {
	return service.NewControllerWithRunner("nginx",
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			if len(args) > 0 && args[0] == "stop" {
				return nil, errors.New("exit status 1")
			}
			return nil, nil
		})
}

func TestCreateCertificates_StopFailureIsReportedAsServiceError(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := New(Config{
		ClientBin: "letsencrypt",
		LiveDir:   t.TempDir(),
		Service:   runningServiceWithStopError(),
		Reporter:  rep,
		Run:       client.run,
	})

	ok := is.CreateCertificates(context.Background(), []*types.CertificateRequest{req("x.example.com")})
	assert.False(t, ok)
	assert.Empty(t, client.calls, "client must not run while the service still holds the ports")

	require.Len(t, rep.states, 1)
	assert.Equal(t, types.StatusBlocked, rep.states[0])
	assert.Contains(t, rep.messages[0], "failed to yield service ports")
	assert.Contains(t, rep.messages[0], "failed to stop nginx")
	assert.NotContains(t, rep.messages[0], "registration failed")
}

func TestRenew_StopFailureIsReportedAsServiceError(t *testing.T) {
	client := &fakeClient{}
	rep := &fakeReporter{}
	is := New(Config{
		ClientBin: "letsencrypt",
		LiveDir:   t.TempDir(),
		Service:   runningServiceWithStopError(),
		Reporter:  rep,
		Run:       client.run,
	})

	err := is.Renew(context.Background(), "x.example.com")
	assert.Error(t, err)
	assert.Empty(t, client.calls)

	require.Len(t, rep.states, 1)
	assert.Equal(t, types.StatusBlocked, rep.states[0])
	assert.Contains(t, rep.messages[0], "failed to yield service ports")
	assert.NotContains(t, rep.messages[0], "renewal failed")
}

func TestRenew_ServiceRestartedOnFailure(t *testing.T) {
	var systemctl []string
	running := true
	svcRunner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		call := name + " " + strings.Join(args, " ")
		systemctl = append(systemctl, call)
		if strings.Contains(call, "is-active") && !running {
			return nil, errors.New("inactive")
		}
		return nil, nil
	}

	client := &fakeClient{output: "boom", failOn: "renew"}
	is := New(Config{
		ClientBin: "letsencrypt",
		LiveDir:   t.TempDir(),
		Service:   service.NewControllerWithRunner("nginx", svcRunner),
		Reporter:  &fakeReporter{},
		Run:       client.run,
	})

	_ = is.Renew(context.Background(), "x.example.com")

	assert.Contains(t, systemctl, "systemctl stop nginx")
	assert.Contains(t, systemctl, "systemctl start nginx")
}
