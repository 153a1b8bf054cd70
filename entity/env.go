package entity

import "fmt"

// Env identifies the hosting environment an app is deployed to.
// Environment-specific values (e.g. SFTP host) are selected by explicit
// switches on this type, never by interpolated field names.
type Env int8

const (
	// EnvProd is the production environment
	EnvProd Env = iota
	// EnvStaging is the staging environment
	EnvStaging
)

func (e Env) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	default:
		return "prod"
	}
}

// ParseEnv converts a config/CLI string to an Env.
func ParseEnv(s string) (Env, error) {
	switch s {
	case "", "prod", "production":
		return EnvProd, nil
	case "staging":
		return EnvStaging, nil
	}
	return EnvProd, fmt.Errorf("unknown environment %q (expected \"prod\" or \"staging\")", s)
}
