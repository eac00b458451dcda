package cron

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCrontab is an in-memory crontab backend.
type memCrontab struct {
	content string
	writes  int
}

func (m *memCrontab) Read(ctx context.Context) (string, error) {
	return m.content, nil
}

func (m *memCrontab) Write(ctx context.Context, content string) error {
	m.content = content
	m.writes++
	return nil
}

func taggedLines(content string) []string {
	var tagged []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, JobComment) {
			tagged = append(tagged, line)
		}
	}
	return tagged
}

func TestArm_InstallsOneJob(t *testing.T) {
	tab := &memCrontab{}
	s := NewSchedulerWithCrontab("/usr/bin/certkeep renew --request", tab, func(n int) int { return 29 })

	require.NoError(t, s.Arm(context.Background()))

	tagged := taggedLines(tab.content)
	require.Len(t, tagged, 1)
	assert.Equal(t,
		"30 6,18 * * * /usr/bin/certkeep renew --request # "+JobComment,
		tagged[0])
}

func TestArm_TwiceLeavesExactlyOneJob(t *testing.T) {
	tab := &memCrontab{}
	minute := 0
	s := NewSchedulerWithCrontab("certkeep renew --request", tab, func(n int) int {
		minute += 10
		return minute
	})

	require.NoError(t, s.Arm(context.Background()))
	require.NoError(t, s.Arm(context.Background()))

	tagged := taggedLines(tab.content)
	require.Len(t, tagged, 1)
	// The surviving job is from the second arm.
	assert.True(t, strings.HasPrefix(tagged[0], "21 "))
}

func TestArm_PreservesForeignLines(t *testing.T) {
	tab := &memCrontab{content: "0 4 * * * /usr/local/bin/backup.sh\n"}
	s := NewSchedulerWithCrontab("certkeep renew --request", tab, func(n int) int { return 0 })

	require.NoError(t, s.Arm(context.Background()))

	assert.Contains(t, tab.content, "/usr/local/bin/backup.sh")
	assert.Len(t, taggedLines(tab.content), 1)
}

func TestArm_MinuteRange(t *testing.T) {
	// rand.Intn(59) yields 0..58; the minute is shifted to 1..59 so
	// the job never fires at minute zero.
	for _, r := range []int{0, 29, 58} {
		tab := &memCrontab{}
		s := NewSchedulerWithCrontab("certkeep renew --request", tab, func(n int) int {
			require.Equal(t, 59, n)
			return r
		})
		require.NoError(t, s.Arm(context.Background()))

		fields := strings.Fields(taggedLines(tab.content)[0])
		minute, err := strconv.Atoi(fields[0])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, minute, 1)
		assert.LessOrEqual(t, minute, 59)
		assert.Equal(t, "6,18", fields[1])
	}
}

func TestDisarm_RemovesOnlyTaggedJobs(t *testing.T) {
	tab := &memCrontab{content: fmt.Sprintf(
		"0 4 * * * /usr/local/bin/backup.sh\n12 6,18 * * * certkeep renew --request # %s\n",
		JobComment)}
	s := NewSchedulerWithCrontab("certkeep renew --request", tab, func(n int) int { return 0 })

	require.NoError(t, s.Disarm(context.Background()))

	assert.Contains(t, tab.content, "backup.sh")
	assert.Empty(t, taggedLines(tab.content))
}

func TestDisarm_EmptyCrontab(t *testing.T) {
	tab := &memCrontab{}
	s := NewSchedulerWithCrontab("certkeep renew --request", tab, func(n int) int { return 0 })

	require.NoError(t, s.Disarm(context.Background()))
	assert.Equal(t, "", tab.content)
}
