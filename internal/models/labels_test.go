package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSituacaoCadastralLabel(t *testing.T) {
	label, ok := SituacaoCadastralLabel(2)
	assert.True(t, ok)
	assert.Equal(t, "ATIVA", label)

	label, ok = SituacaoCadastralLabel(8)
	assert.True(t, ok)
	assert.Equal(t, "BAIXADA", label)

	// Unknown codes carry no label; the code is preserved by the caller.
	_, ok = SituacaoCadastralLabel(99)
	assert.False(t, ok)
}

func TestMatrizFilialLabel(t *testing.T) {
	label, ok := MatrizFilialLabel(1)
	assert.True(t, ok)
	assert.Equal(t, "MATRIZ", label)

	_, ok = MatrizFilialLabel(3)
	assert.False(t, ok)
}

func TestPorteLabel(t *testing.T) {
	label, ok := PorteLabel(5)
	assert.True(t, ok)
	assert.Equal(t, "DEMAIS", label)

	_, ok = PorteLabel(2)
	assert.False(t, ok)
}

func TestIdentificadorSocioLabel(t *testing.T) {
	label, ok := IdentificadorSocioLabel(2)
	assert.True(t, ok)
	assert.Equal(t, "PESSOA FÍSICA", label)

	_, ok = IdentificadorSocioLabel(99)
	assert.False(t, ok)
}

func TestFaixaEtariaLabel(t *testing.T) {
	label, ok := FaixaEtariaLabel(3)
	assert.True(t, ok)
	assert.Equal(t, "21 a 30 anos", label)

	label, ok = FaixaEtariaLabel(9)
	assert.True(t, ok)
	assert.Equal(t, "Maiores de 80 anos", label)

	_, ok = FaixaEtariaLabel(0)
	assert.False(t, ok)
}
