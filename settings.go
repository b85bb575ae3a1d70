package dbdeploy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Settings holds the deploy settings read from the environment file.
type Settings struct {
	// ── Required ─────────────────────────────────────────────────────────────
	URL            string `env:"VITE_SUPABASE_URL,required,notEmpty"`
	ServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY,required,notEmpty"`

	// ── Platform ─────────────────────────────────────────────────────────────
	// Ref overrides the project ref derived from URL.
	Ref          string `env:"SUPABASE_PROJECT_REF"`
	AccessToken  string `env:"SUPABASE_ACCESS_TOKEN"`
	APIURL       string `env:"SUPABASE_API_URL"       envDefault:"https://api.supabase.com"`
	DashboardURL string `env:"SUPABASE_DASHBOARD_URL" envDefault:"https://supabase.com/dashboard"`

	// ── Direct connection ────────────────────────────────────────────────────
	DatabaseURL string `env:"DATABASE_URL"`
}

// SettingsFromEnv builds Settings from an env file mapping. The process
// environment is not consulted.
func SettingsFromEnv(m map[string]string) (*Settings, error) {
	s := &Settings{}
	err := env.ParseWithOptions(s, env.Options{Environment: m})
	if err == nil {
		return s, nil
	}

	var missing []string
	var agg env.AggregateError
	if errors.As(err, &agg) {
		for _, e := range agg.Errors {
			var notSet env.EnvVarIsNotSetError
			var empty env.EmptyEnvVarError
			switch {
			case errors.As(e, &notSet):
				missing = append(missing, notSet.Key)
			case errors.As(e, &empty):
				missing = append(missing, empty.Key)
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSettings, strings.Join(missing, ", "))
	}
	return nil, fmt.Errorf("parsing settings: %w", err)
}

// ProjectRef returns the platform project reference: the explicit
// SUPABASE_PROJECT_REF, else the first label of a *.supabase.co host, else
// "_" which makes the dashboard ask for a project.
func (s *Settings) ProjectRef() string {
	if s.Ref != "" {
		return s.Ref
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return "_"
	}
	host := u.Hostname()
	if ref, ok := strings.CutSuffix(host, ".supabase.co"); ok && ref != "" && !strings.Contains(ref, ".") {
		return ref
	}
	return "_"
}

// SQLEditorURL is the dashboard page where the migration can be pasted and run.
func (s *Settings) SQLEditorURL() string {
	return fmt.Sprintf("%s/project/%s/sql", strings.TrimRight(s.DashboardURL, "/"), s.ProjectRef())
}

// MaskedKey returns the service credential with all but its last four
// characters hidden.
func (s *Settings) MaskedKey() string {
	return mask(s.ServiceRoleKey)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
