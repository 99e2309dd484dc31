// Package config loads and validates the hostd daemon configuration.
//
// Configuration lives in a YAML file, by default at ~/.hostd/config.yaml:
//
//	socket:
//	  path: /var/run/hostd.socket
//	resolver:
//	  nameservers:
//	    - 1.1.1.1:53
//	    - 8.8.8.8:53
//	  lookup_timeout: 5s
//	  retries: 1
//
// When no file exists, Default() values apply. The Provider interface and
// the injectable filesystem keep loading testable without touching the
// real disk.
package config
