// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigepsi/portal/pkg/slice"
)

/*
TestMap verifies element-wise transformation and nil passthrough.
*/
func TestMap(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, slice.Map([]string{" a", "b "}, strings.TrimSpace))
	assert.Nil(t, slice.Map(nil, strings.TrimSpace))
}

/*
TestFilter verifies order-preserving selection, the origin-list cleanup shape
it exists for.
*/
func TestFilter(t *testing.T) {
	origins := []string{"https://sigepsi.mil.ec", "", "http://localhost:5173", ""}
	kept := slice.Filter(origins, func(origin string) bool { return origin != "" })

	assert.Equal(t, []string{"https://sigepsi.mil.ec", "http://localhost:5173"}, kept)
	assert.Nil(t, slice.Filter([]string{""}, func(origin string) bool { return origin != "" }))
}
