package config

import "time"

type Auth struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET,notEmpty" json:"-"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"720h"`
}
