package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/decoderservice"
)

func main() {
	// Best effort: local development keeps credentials in .env, deployments
	// inject real environment variables.
	_ = godotenv.Load()

	if err := decoderservice.Run(); err != nil {
		log.Error().Err(err).Msg("decoder service exited with error")
		os.Exit(1)
	}
}
