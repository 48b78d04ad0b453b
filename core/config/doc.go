// Package config provides type-safe environment variable loading with
// per-type caching. A .env file in the working directory is loaded
// automatically on first use; struct fields are parsed with the caarlos0/env
// library.
//
// The session packages each expose an env-tagged Config struct; load them
// through this package at startup:
//
//	import (
//		"github.com/dmitrymomot/shadowsession/core/config"
//		"github.com/dmitrymomot/shadowsession/core/sessioncookie"
//		"github.com/dmitrymomot/shadowsession/core/sessiontransport"
//		"github.com/dmitrymomot/shadowsession/integration/database/redis"
//	)
//
//	var (
//		redisCfg  redis.Config
//		cookieCfg sessioncookie.Config
//		sessCfg   sessiontransport.Config
//	)
//	config.MustLoad(&redisCfg)
//	config.MustLoad(&cookieCfg)
//	config.MustLoad(&sessCfg)
//
// Each configuration type is parsed once per process and cached by type, so
// later Load calls for the same type return the identical value regardless
// of environment changes in between.
package config
