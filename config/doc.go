// Package config loads layered configuration for flowpipe binaries.
//
// Values are resolved from, in increasing precedence: a config.yml file,
// a .env file and the process environment, and explicitly set command-line
// flags. Viper does the merging and unmarshals into the caller's struct,
// which typically embeds ServiceConfig.
//
//	var cfg AppConfig
//	err := config.LoadConfig("flowpipe", &cfg,
//	    config.WithEnvPrefix("FLOWPIPE"),
//	    config.WithFlags(flags, map[string]string{"policy": "scheduler.policy"}))
package config
