// Package config provides configuration parsing for cveboard.
//
// The configuration is stored in cveboard.json, or in cveboard.toml with the
// same keys when no JSON file is present. Every field is optional;
// missing values take the defaults from New. Environment variables override
// the file: BASE_URL sets the base path and CVEBOARD_PORT the listen port.
//
// # Configuration File Structure
//
//	{
//	  "base_path": "/dashboard/",
//	  "server": {"host": "0.0.0.0", "port": 8080},
//	  "views": {
//	    "source": "s3",
//	    "s3": {"bucket": "cveboard-views", "prefix": "views/", "region": "eu-west-1"}
//	  },
//	  "metrics": {"enabled": true, "namespace": "cveboard", "path": "/metrics"},
//	  "tracing": {"enabled": true, "tracer_name": "cveboard"},
//	  "logging": {"level": "debug", "format": "json"}
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ApplyEnv(os.Getenv)
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	slog.SetDefault(cfg.Logger(os.Stderr))
package config
