package common_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/common"
)

func TestCanUseStopwatch(t *testing.T) {
	sut := common.Stopwatch("hello %s", "world")
	require.NotNil(t, sut)
	limit := common.Duration(time.Second)
	assert.True(t, sut.Report() < limit)
}
