package whiskybaseweb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "droscher.com/DramGargoyle/pkg/integrations/whiskybase-web"
)

func TestExtractProof(t *testing.T) {
	proof := ExtractProof("43.0% Vol.")
	require.NotNil(t, proof)
	assert.InDelta(t, 86.0, *proof, 0.01)

	proof = ExtractProof("57.5%")
	require.NotNil(t, proof)
	assert.InDelta(t, 115.0, *proof, 0.01)

	assert.Nil(t, ExtractProof("N/A"))
	assert.Nil(t, ExtractProof(""))
	assert.Nil(t, ExtractProof("strong%"))
}

func TestExtractAge(t *testing.T) {
	age := ExtractAge("12 years old")
	require.NotNil(t, age)
	assert.Equal(t, uint64(12), *age)

	age = ExtractAge("18")
	require.NotNil(t, age)
	assert.Equal(t, uint64(18), *age)

	assert.Nil(t, ExtractAge("N/A"))
	assert.Nil(t, ExtractAge(""))
	assert.Nil(t, ExtractAge("no age statement"))
}
