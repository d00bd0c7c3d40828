package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveObjectKey(t *testing.T) {
	assert.Equal(t, "sales/2024.csv", resolveObjectKey("sales/", "2024.csv"))
	assert.Equal(t, "sales/2024.csv", resolveObjectKey("sales", "/sales/2024.csv"))
	assert.Equal(t, "2024.csv", resolveObjectKey("", "/2024.csv"))
}

func TestObjectRelativePath(t *testing.T) {
	assert.Equal(t, "2024/jan.csv", objectRelativePath("sales", "sales/2024/jan.csv"))
	assert.Equal(t, "sales/jan.csv", objectRelativePath("", "sales/jan.csv"))
}
