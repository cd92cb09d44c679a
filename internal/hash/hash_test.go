package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashLength(t *testing.T) {
	h := Hash([]byte("package main"))
	assert.Len(t, h, 32)
}

func TestHashDeterministic(t *testing.T) {
	a := Hash([]byte("defmodule Foo do\nend"))
	b := Hash([]byte("defmodule Foo do\nend"))
	assert.Equal(t, a, b)
}

func TestHashDiffersOnContent(t *testing.T) {
	a := Hash([]byte("x"))
	b := Hash([]byte("y"))
	assert.NotEqual(t, a, b)
}

func TestHashEmpty(t *testing.T) {
	h := Hash([]byte(""))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", h)
}
