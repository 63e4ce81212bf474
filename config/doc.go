// Package config provides a type-safe, generic way to load configuration
// from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11` to
// deliver a small API that:
//
//   - Loads the default `.env` file from the current working directory once
//     per process, if one exists.
//   - Parses the environment into any Go struct using `env` field tags.
//   - Exposes a helper that panics on failure (`MustLoad`) for configuration
//     the process cannot start without.
//
// # Usage
//
// Create a struct describing your configuration and annotate its fields with
// `env` tags:
//
//	type ClusterConfig struct {
//	    Host     string `env:"ELASTICBUD_CLIENT_FQDN,required"`
//	    Port     int    `env:"ELASTICBUD_CLIENT_PORT" envDefault:"443"`
//	    Username string `env:"ELASTICBUD_USERNAME,notEmpty"`
//	    Password string `env:"ELASTICBUD_PASSWORD,notEmpty"`
//	}
//
// Then populate it:
//
//	var cfg ClusterConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("loading config: %v", err)
//	}
//
// # Error Handling
//
// Failures are reported through the sentinel errors ErrParsingConfig and
// ErrNilPointer; use errors.Is to distinguish them.
package config
