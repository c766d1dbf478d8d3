package main

import "time"

type Config struct {
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	IndexFilepath             string        `env:"INDEX_FILEPATH,required=true"`
	UploadsDir                string        `env:"UPLOADS_DIR,required=true"`
	PublicURL                 string        `env:"PUBLIC_URL,required=true"`
	AdminSecretKey            string        `env:"ADMIN_SECRET_KEY,required=true"`
	SessionSigningKey         string        `env:"SESSION_SIGNING_KEY,required=true"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	ShutdownTimeout           time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
