package cache

import "fmt"

// Key shapes shared by every instance on the same Redis. Renaming any of
// these breaks cross-instance compatibility.
const (
	prefix = "mooda:"

	// PatternStatsChannels matches every per-scope stats channel.
	PatternStatsChannels = prefix + "stats:*"
	// PatternCountryCounters discovers countries with activity today. HAPPY is
	// an arbitrary anchor type: every country key set is written as a whole.
	PatternCountryCounters = prefix + "cnt:today:country:*:HAPPY"
)

func RateLimitKey(identity string) string {
	return fmt.Sprintf("%srl:submit:%s", prefix, identity)
}

// GuardKey scope is "user" or "dev", day is YYYY-MM-DD.
func GuardKey(scope, identity, day string) string {
	return fmt.Sprintf("%ssubmitted:%s:%s:%s", prefix, scope, identity, day)
}

func MoodCounterKey(moodType string) string {
	return fmt.Sprintf("%scnt:today:mood:%s", prefix, moodType)
}

func CountryCounterKey(country, moodType string) string {
	return fmt.Sprintf("%scnt:today:country:%s:%s", prefix, country, moodType)
}

func LastSnapshotKey(scope string) string {
	return fmt.Sprintf("%sstats:last:%s", prefix, scope)
}

func StatsChannel(scope string) string {
	return fmt.Sprintf("%sstats:%s", prefix, scope)
}

func LastMoodKey(scope, identity string) string {
	return fmt.Sprintf("%slast:%s:%s", prefix, scope, identity)
}
