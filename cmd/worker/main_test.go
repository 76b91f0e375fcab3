package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerConcurrency(t *testing.T) {
	assert.Equal(t, 2, workerConcurrency(0))
	assert.Equal(t, 2, workerConcurrency(-3))
	assert.Equal(t, 7, workerConcurrency(7))
	assert.Equal(t, maxConcurrency, workerConcurrency(500))
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 5*time.Second, retryDelay(0))
	assert.Equal(t, 5*time.Second, retryDelay(1))
	assert.Equal(t, 10*time.Second, retryDelay(2))
	assert.Equal(t, 20*time.Second, retryDelay(3))
}
