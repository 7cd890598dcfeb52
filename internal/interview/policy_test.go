package interview_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mockmate/mockmate/internal/interview"
	"github.com/mockmate/mockmate/internal/models"
)

func TestDecideFree(t *testing.T) {
	cases := []struct {
		used string
		n    int
		want bool
	}{
		{"none used", 0, true},
		{"one used", 1, true},
		{"at limit", 2, false},
		{"over limit", 3, false},
	}

	for _, tc := range cases {
		t.Run(tc.used, func(t *testing.T) {
			d := interview.Decide(models.PlanFree, tc.n, interview.FreeFollowUpLimit)
			require.Equal(t, tc.want, d.FollowUpAllowed)
			require.Equal(t, tc.n, d.FollowUpsUsed)
			require.Equal(t, interview.FreeFollowUpLimit, d.FollowUpsLimit)
		})
	}
}

// the permission flag must flip exactly at used >= limit
func TestDecideFreeBoundary(t *testing.T) {
	require.True(t, interview.Decide(models.PlanFree, 1, 2).FollowUpAllowed)
	require.False(t, interview.Decide(models.PlanFree, 2, 2).FollowUpAllowed)
}

func TestDecidePremiumUnbounded(t *testing.T) {
	for _, used := range []int{0, 2, 50, 10000} {
		d := interview.Decide(models.PlanPremium, used, interview.FreeFollowUpLimit)
		require.True(t, d.FollowUpAllowed, "premium should allow follow-ups at used=%d", used)
	}
}

func TestDecideDefaultLimit(t *testing.T) {
	d := interview.Decide(models.PlanFree, 0, 0)
	require.Equal(t, interview.FreeFollowUpLimit, d.FollowUpsLimit)
}
