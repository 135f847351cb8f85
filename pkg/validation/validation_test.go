package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("student@example.com"))
	assert.NoError(t, ValidateEmail("  coach.one+tag@club.io  "))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"))
}

func TestValidateActorID(t *testing.T) {
	assert.NoError(t, ValidateActorID("alice"))
	assert.NoError(t, ValidateActorID("coach@example.com"))
	assert.Error(t, ValidateActorID(""))
	assert.Error(t, ValidateActorID("has spaces"))
	assert.Error(t, ValidateActorID(strings.Repeat("x", 129)))
}

func TestValidateVideoID(t *testing.T) {
	assert.NoError(t, ValidateVideoID("video_1234-abcd"))
	assert.Error(t, ValidateVideoID(""))
	assert.Error(t, ValidateVideoID("video/../../etc"))
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("serve_analysis.mp4"))
	assert.Error(t, ValidateFilename(""))
	assert.Error(t, ValidateFilename("../escape.mp4"))
	assert.Error(t, ValidateFilename(strings.Repeat("a", 256)))
}

func TestValidateAnnotationBody(t *testing.T) {
	assert.NoError(t, ValidateAnnotationBody("keep your paddle up on the third shot"))
	assert.Error(t, ValidateAnnotationBody("   "))
	assert.Error(t, ValidateAnnotationBody(strings.Repeat("b", 4097)))
}
