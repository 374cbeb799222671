package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "auth-challenge", sanitizeName("auth-challenge"))
	assert.Equal(t, "apply_custom_question", sanitizeName("apply_custom_question"))
	//free-text labels end up in filenames
	assert.Equal(t, "Years-of-C---experience-", sanitizeName("Years of C++ experience?"))
}
