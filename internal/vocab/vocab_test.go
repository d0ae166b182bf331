package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyInfoTypeOrder(t *testing.T) {
	// side effects outrank cases when both triggers appear
	assert.Equal(t, InfoSideEffects, ClassifyInfoType("side effects in severe cases"))
	assert.Equal(t, InfoCases, ClassifyInfoType("how many infected"))
	assert.Equal(t, InfoNutrition, ClassifyInfoType("vitamin rich diet"))
	assert.Equal(t, InfoGeneral, ClassifyInfoType("hello"))
}

func TestDetectTopic(t *testing.T) {
	assert.Equal(t, "tb_incidence", DetectTopic("TB incidence in India"))
	assert.Equal(t, "under5_mortality", DetectTopic("child mortality worldwide"))
	assert.Equal(t, "under5_mortality", DetectTopic("under-five mortality in Nepal"))
	assert.Equal(t, "", DetectTopic("favourite food"))
}

func TestToISO3(t *testing.T) {
	assert.Equal(t, "LKA", ToISO3("Sri Lanka"))
	assert.Equal(t, "IND", ToISO3("india"))
	assert.Equal(t, "BRA", ToISO3("bra"), "ISO codes pass through uppercased")
	assert.Equal(t, "WLD", ToISO3(""))
	assert.Equal(t, "WLD", ToISO3("Atlantis"))
}

func TestToISO2OrOriginal(t *testing.T) {
	assert.Equal(t, "LK", ToISO2OrOriginal("Sri Lanka"))
	assert.Equal(t, "Atlantis", ToISO2OrOriginal("Atlantis"))
}
