package policy

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// MaxNameLength is the maximum length of a policy name.
const MaxNameLength = 128

// Validate checks a policy definition and returns a ValidationError naming
// the first offending field. Identity and counter fields are not checked;
// stores manage those.
func Validate(p *retention.Policy) error {
	if p == nil {
		return retention.NewValidationError("", "policy is nil")
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return retention.NewValidationError("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return retention.NewValidationError("name",
			fmt.Sprintf("name exceeds %d characters", MaxNameLength))
	}

	if strings.TrimSpace(p.DataType) == "" {
		return retention.NewValidationError("data_type", "data_type is required")
	}

	if p.RetentionDays < retention.MinRetentionDays || p.RetentionDays > retention.MaxRetentionDays {
		return retention.NewValidationError("retention_days",
			fmt.Sprintf("retention_days must be between %d and %d, got %d",
				retention.MinRetentionDays, retention.MaxRetentionDays, p.RetentionDays))
	}

	if strings.TrimSpace(p.Schedule) == "" {
		return retention.NewValidationError("schedule", "schedule is required")
	}
	if _, err := cron.ParseStandard(p.Schedule); err != nil {
		return retention.NewValidationError("schedule",
			fmt.Sprintf("invalid cron expression %q: %v", p.Schedule, err))
	}

	if p.ArchiveBeforeDelete {
		if p.Archive == nil {
			return retention.NewValidationError("archive",
				"archive settings are required when archive_before_delete is set")
		}
		if strings.TrimSpace(p.Archive.Destination) == "" {
			return retention.NewValidationError("archive.destination", "destination is required")
		}
		if strings.Contains(p.Archive.Destination, "..") {
			return retention.NewValidationError("archive.destination",
				"destination must not contain path traversal")
		}
		switch p.Archive.Compression {
		case retention.CompressionNone, retention.CompressionGzip, retention.CompressionZstd:
		default:
			return retention.NewValidationError("archive.compression",
				fmt.Sprintf("unknown compression %q (supported: none, gzip, zstd)", p.Archive.Compression))
		}
	}

	for attr, values := range p.Filters {
		if strings.TrimSpace(attr) == "" {
			return retention.NewValidationError("filters", "filter attribute name must not be empty")
		}
		if len(values) == 0 {
			return retention.NewValidationError("filters",
				fmt.Sprintf("filter %q has no allowed values", attr))
		}
	}

	return nil
}
