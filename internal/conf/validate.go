package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateSettings checks the loaded settings for values the pipeline cannot
// operate with. Validation failures are configuration errors and abort
// startup; the pipeline never "corrects" operator input silently.
func ValidateSettings(s *Settings) error {
	var errs []string

	if s.Output.SQLite.Enabled && s.Output.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path must not be empty when SQLite is enabled")
	}
	if s.Output.ImageDir == "" {
		errs = append(errs, "output.imagedir must not be empty")
	}
	if s.Output.AttributionDir == "" {
		errs = append(errs, "output.attributiondir must not be empty")
	}

	if s.Discovery.DailyQuota < 1 {
		errs = append(errs, fmt.Sprintf("discovery.dailyquota must be at least 1, got %d", s.Discovery.DailyQuota))
	}
	if s.Discovery.CandidateDelayMs < 0 {
		errs = append(errs, "discovery.candidatedelayms must not be negative")
	}
	if s.Discovery.MaxRetries < 1 {
		errs = append(errs, "discovery.maxretries must be at least 1")
	}

	if len(s.ImageProvider.Providers) == 0 {
		errs = append(errs, "imageprovider.providers must list at least one provider")
	}
	for _, p := range s.ImageProvider.Providers {
		switch p {
		case "manufacturer", "archive", "retailer":
		default:
			errs = append(errs, fmt.Sprintf("imageprovider.providers contains unknown provider %q", p))
		}
	}
	if s.ImageProvider.TimeoutSeconds < 1 {
		errs = append(errs, "imageprovider.timeoutseconds must be at least 1")
	}
	if s.ImageProvider.MaxImageWidth < s.ImageProvider.ThumbWidth {
		errs = append(errs, "imageprovider.maximagewidth must not be smaller than thumbwidth")
	}

	if s.Scheduler.IntervalHours < 1 {
		errs = append(errs, "scheduler.intervalhours must be at least 1")
	}
	if _, _, err := ParseBackupTime(s.Scheduler.BackupTime); err != nil {
		errs = append(errs, err.Error())
	}

	if s.Backup.Enabled && s.Backup.Path == "" {
		errs = append(errs, "backup.path must not be empty when backups are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseBackupTime parses a HH:MM clock string into hour and minute.
func ParseBackupTime(value string) (hour, minute int, err error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("scheduler.backuptime must be in HH:MM format, got %q", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("scheduler.backuptime has invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("scheduler.backuptime has invalid minute in %q", value)
	}
	return hour, minute, nil
}
