package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunDispatch(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: spvix")

	stdout.Reset()
	stderr.Reset()
	assert.Equal(t, 0, run([]string{"help"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "download")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"publish"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "publish"`)

	stderr.Reset()
	assert.Equal(t, 0, run([]string{"BUILD", "-h"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "spvix build")
}
