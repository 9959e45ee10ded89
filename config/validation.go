package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// storeRequirements lists the settings each store backend cannot run without.
var storeRequirements = map[string]func(*Config) []ValidationError{
	StorePostgres: func(c *Config) []ValidationError {
		var errs []ValidationError
		fields := []struct{ name, value string }{
			{"DB_HOST", c.DBHost},
			{"DB_PORT", c.DBPort},
			{"DB_USER", c.DBUser},
			{"DB_NAME", c.DBName},
		}
		for _, f := range fields {
			if f.value == "" {
				errs = append(errs, ValidationError{f.name, "is required for the postgres store"})
			}
		}
		return errs
	},
	StoreSQLite: func(c *Config) []ValidationError {
		if c.SQLitePath == "" {
			return []ValidationError{{"SQLITE_PATH", "is required for the sqlite store"}}
		}
		return nil
	},
	StoreFirestore: func(c *Config) []ValidationError {
		if c.FirestoreProjectID == "" {
			return []ValidationError{{"FIRESTORE_PROJECT_ID", "is required for the firestore store"}}
		}
		return nil
	},
	StoreMongo: func(c *Config) []ValidationError {
		var errs []ValidationError
		if c.MongoURI == "" {
			errs = append(errs, ValidationError{"MONGODB_URI", "is required for the mongo store"})
		}
		if c.MongoDatabase == "" {
			errs = append(errs, ValidationError{"MONGODB_DATABASE", "is required for the mongo store"})
		}
		return errs
	},
}

// ValidateConfig checks cfg and reports every problem at once. Proxy
// credentials are checked per request, not here.
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	if check, ok := storeRequirements[cfg.StoreBackend]; ok {
		errs = append(errs, check(cfg)...)
	} else {
		errs = append(errs, ValidationError{"STORE_BACKEND", fmt.Sprintf("unknown store backend %q", cfg.StoreBackend)})
	}

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}
	if cfg.Env == Production && cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "is required in production"})
	}
	if cfg.Env == CI && cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "environment variable is required in CI environment"})
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, ValidationError{"TIMEZONE", fmt.Sprintf("unknown timezone %q", cfg.Timezone)})
	}
	if cfg.MenuCacheTTL <= 0 {
		errs = append(errs, ValidationError{"MENU_CACHE_TTL", "must be positive"})
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, ValidationError{"SESSION_TTL", "must be positive"})
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_WINDOW", "must be positive"})
	}
	if cfg.ChatRateLimit < 0 || cfg.ProxyRateLimit < 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT", "limits cannot be negative"})
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("%s", strings.Join(msgs, "\n"))
	}
	return nil
}
