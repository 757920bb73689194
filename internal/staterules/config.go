package staterules

import "time"

const (
	// DefaultMilestoneTitleFormat names due-date milestones by year and month.
	DefaultMilestoneTitleFormat = "2006-01"

	// PastDueNoticePrefix starts the body of every past-due notice.
	PastDueNoticePrefix = "`housekeep:pastdueinfo`"
)

// Config controls the state rules. Empty values disable the rule they feed.
type Config struct {
	// ObsoleteLabel closes open issues carrying it.
	ObsoleteLabel string

	// PublicLabel keeps open issues carrying it non-confidential. When
	// empty, only closed issues are made confidential.
	PublicLabel string

	// FallbackAssignee is the user ID assigned to closed, unassigned issues
	// whose closer is unknown. Zero disables the fallback.
	FallbackAssignee int

	// DueMilestone enables attaching a milestone derived from the due date.
	DueMilestone bool

	// MilestoneTitleFormat is the time layout used to name due-date milestones.
	MilestoneTitleFormat string

	// PastDueAfter is how long after the due date an issue counts as past due.
	PastDueAfter time.Duration

	// NoticeTTL is the age after which a past-due notice is replaced.
	NoticeTTL time.Duration
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ObsoleteLabel:        "obsolete",
		PublicLabel:          "public",
		DueMilestone:         true,
		MilestoneTitleFormat: DefaultMilestoneTitleFormat,
		PastDueAfter:         24 * time.Hour,
		NoticeTTL:            24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MilestoneTitleFormat == "" {
		c.MilestoneTitleFormat = d.MilestoneTitleFormat
	}
	if c.PastDueAfter <= 0 {
		c.PastDueAfter = d.PastDueAfter
	}
	if c.NoticeTTL <= 0 {
		c.NoticeTTL = d.NoticeTTL
	}
	return c
}
