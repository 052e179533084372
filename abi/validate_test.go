package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInfoAcceptsEmpty(t *testing.T) {
	assert.NoError(t, ValidateInfo(nil))
	assert.NoError(t, ValidateInfo(map[string]string{}))
}

func TestValidateInfoAcceptsWellFormed(t *testing.T) {
	info := map[string]string{
		"name":        "scanner",
		"description": "scans files",
		"function":    "scan",
	}
	assert.NoError(t, ValidateInfo(info))
}

func TestValidateInfoAcceptsExtraStringKeys(t *testing.T) {
	info := map[string]string{"name": "scanner", "function": "scan", "author": "someone"}
	assert.NoError(t, ValidateInfo(info))
}

func TestValidateInfoRejectsMissingName(t *testing.T) {
	info := map[string]string{"function": "scan"}
	assert.Error(t, ValidateInfo(info))
}

func TestValidateInfoRejectsMissingFunction(t *testing.T) {
	info := map[string]string{"name": "scanner"}
	assert.Error(t, ValidateInfo(info))
}

func TestValidateInfoRejectsEmptyName(t *testing.T) {
	info := map[string]string{"name": "", "function": "scan"}
	assert.Error(t, ValidateInfo(info))
}
