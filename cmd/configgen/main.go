package main

import (
	"os"

	"github.com/danmuck/mirrorbridge/internal/config"
	"github.com/danmuck/mirrorbridge/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const defaultPath = "mirrorbridge.toml"

func main() {
	logging.ConfigureRuntime()

	output := pflag.String("output", defaultPath, "output path for config template")
	validate := pflag.Bool("validate", false, "validate an existing config file")
	input := pflag.String("input", defaultPath, "config path for validation")
	force := pflag.Bool("force", false, "overwrite existing config file")
	pflag.Parse()

	if *validate {
		cfg, err := config.LoadFile(*input)
		if err != nil {
			log.Error().Err(err).Msg("validation failed")
			os.Exit(1)
		}
		log.Info().Str("path", *input).Str("addr", cfg.Addr()).Str("platform", cfg.Platform).Msg("validated config")
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Error().Err(err).Msg("write template failed")
		os.Exit(1)
	}
	log.Info().Str("path", *output).Msg("wrote config template")
}
