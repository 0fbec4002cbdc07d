package app

import (
	"msgcore/internal/services/decode"
	"msgcore/internal/services/lidmapping"
	"msgcore/internal/services/signal"
)

// App is an unlocked account: everything needed to decode its envelopes.
type App struct {
	Repo    *signal.Repository
	Decoder *decode.Decoder
	Mapping *lidmapping.Store
}

func New(repo *signal.Repository, dec *decode.Decoder, mapping *lidmapping.Store) *App {
	return &App{
		Repo:    repo,
		Decoder: dec,
		Mapping: mapping,
	}
}
