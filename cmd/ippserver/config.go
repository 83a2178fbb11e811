/* ipp - IPP protocol codec and operation engine in pure Go
 *
 * Copyright (C) 2020 and up by the OpenPrinting project
 * See LICENSE for license terms and conditions
 *
 * ippserver configuration
 */

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

// Config is the ippserver configuration, loaded from an INI file.
//
// Sample:
//
//	[server]
//	listen = :631
//	log-level = info
//	max-collection-depth = 16
//
//	[printer]
//	name = virtual
//	info = Virtual IPP printer
//	location = nowhere in particular
//	formats = application/pdf,application/postscript,text/plain
//	max-jobs = 100
type Config struct {
	Listen             string        // HTTP listen address
	LogLevel           zerolog.Level // Log verbosity
	MaxCollectionDepth int           // Request decoder nesting bound

	PrinterName     string   // printer-name
	PrinterInfo     string   // printer-info
	PrinterLocation string   // printer-location
	Formats         []string // document-format-supported
	MaxJobs         int      // Job table capacity
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":631",
		LogLevel:        zerolog.InfoLevel,
		PrinterName:     "virtual",
		PrinterInfo:     "Virtual IPP printer",
		PrinterLocation: "",
		Formats: []string{
			"application/pdf",
			"application/postscript",
			"application/octet-stream",
			"text/plain",
		},
		MaxJobs: 100,
	}
}

// LoadConfig reads the configuration file at path. An empty path
// selects the built-in defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %s", err)
	}

	srv := file.Section("server")
	cfg.Listen = srv.Key("listen").MustString(cfg.Listen)
	cfg.MaxCollectionDepth = srv.Key("max-collection-depth").MustInt(0)

	if s := srv.Key("log-level").String(); s != "" {
		level, err := zerolog.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("config: log-level: %s", err)
		}
		cfg.LogLevel = level
	}

	prn := file.Section("printer")
	cfg.PrinterName = prn.Key("name").MustString(cfg.PrinterName)
	cfg.PrinterInfo = prn.Key("info").MustString(cfg.PrinterInfo)
	cfg.PrinterLocation = prn.Key("location").MustString(cfg.PrinterLocation)
	cfg.MaxJobs = prn.Key("max-jobs").MustInt(cfg.MaxJobs)

	if formats := prn.Key("formats").Strings(","); len(formats) > 0 {
		cfg.Formats = formats
	}

	if cfg.MaxJobs < 1 {
		return nil, fmt.Errorf("config: max-jobs must be positive")
	}

	return cfg, nil
}
