// conf/validate.go settings validation
package conf

import (
	"fmt"
	"strings"
)

// ValidationError holds the field and message of a single validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidateSettings checks the loaded settings for inconsistencies.
func ValidateSettings(settings *Settings) error {
	var errs []string

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSafetySettings(&settings.Safety); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLimitsSettings(&settings.Limits); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateProviderSettings(&settings.Provider); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) error {
	switch settings.Type {
	case "sqlite":
		if settings.SQLite.Path == "" {
			return ValidationError{Field: "database.sqlite.path", Message: "must not be empty"}
		}
	case "mysql":
		if settings.MySQL.Database == "" {
			return ValidationError{Field: "database.mysql.database", Message: "must not be empty"}
		}
	default:
		return ValidationError{Field: "database.type", Message: "must be 'sqlite' or 'mysql'"}
	}
	return nil
}

func validateSafetySettings(settings *SafetySettings) error {
	for field, thresholds := range map[string]SafetyThresholds{
		"safety.withholdall":     settings.WithholdAll,
		"safety.withholdpopular": settings.WithholdPopular,
	} {
		for category, value := range map[string]int{
			"adult":    thresholds.Adult,
			"spoof":    thresholds.Spoof,
			"medical":  thresholds.Medical,
			"violence": thresholds.Violence,
			"racy":     thresholds.Racy,
		} {
			if value < 0 || value > 5 {
				return ValidationError{
					Field:   field + "." + category,
					Message: "must be on the 0-5 likelihood scale",
				}
			}
		}
	}
	return nil
}

func validateLimitsSettings(settings *LimitsSettings) error {
	if settings.MaxSuggestionsPerIngest <= 0 {
		return ValidationError{Field: "limits.maxsuggestionsperingest", Message: "must be positive"}
	}
	if settings.MaxReviewBatchSize <= 0 {
		return ValidationError{Field: "limits.maxreviewbatchsize", Message: "must be positive"}
	}
	return nil
}

func validateProviderSettings(settings *ProviderSettings) error {
	if settings.GoogleVision.Enabled {
		if settings.GoogleVision.TimeoutSeconds <= 0 {
			return ValidationError{Field: "provider.googlevision.timeoutseconds", Message: "must be positive"}
		}
		if settings.GoogleVision.RequestsPerSec <= 0 {
			return ValidationError{Field: "provider.googlevision.requestspersec", Message: "must be positive"}
		}
	}
	if settings.Wikidata.Enabled && settings.Wikidata.Endpoint == "" {
		return ValidationError{Field: "provider.wikidata.endpoint", Message: "must not be empty"}
	}
	return nil
}
