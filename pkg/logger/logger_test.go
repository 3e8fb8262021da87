package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturador-afip/pkg/logger"
)

func TestNew_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "warn", Output: &buf})

	log.Info().Msg("descartado por nivel")
	assert.Empty(t, buf.String())

	wsfe := log.Component("wsfe")
	wsfe.Warn().Msg("observación de AFIP")
	assert.Contains(t, buf.String(), `"component":"wsfe"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "verboso", Output: &buf})

	log.Debug().Msg("no sale")
	log.Info().Msg("sale")
	assert.NotContains(t, buf.String(), "no sale")
	assert.Contains(t, buf.String(), "sale")
}

func TestNop_NoEscribe(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() {
		log.Error().Msg("descartado")
		c := log.Component("x")
		c.Info().Msg("descartado")
	})
}
