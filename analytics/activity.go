// Package analytics derives member activity and commit leaderboards from the
// commits synced for a team.
package analytics

import (
	"time"

	"github.com/automate/teams-server/models/userdata"
)

const day = 24 * time.Hour

// Classify buckets a member by the age of their latest commit.
func Classify(lastCommit *time.Time, now time.Time) string {
	if lastCommit == nil {
		return userdata.Inactive
	}

	age := now.Sub(*lastCommit)
	switch {
	case age <= 7*day:
		return userdata.Active7Days
	case age <= 14*day:
		return userdata.Active14Days
	case age <= 30*day:
		return userdata.Active30Days
	}
	return userdata.Inactive
}
