package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func TestParamID(t *testing.T) {
	cases := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"99999999999", 0, false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}

		got, ok := paramID(c, "id")
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		if !tc.ok {
			assert.Equal(t, http.StatusBadRequest, w.Code, tc.raw)
		}
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "rust", "web"}, splitList([]string{"go, rust", "", " web "}))
	assert.Nil(t, splitList(nil))
}

func TestCustomValidators(t *testing.T) {
	type statusForm struct {
		Status string `binding:"omitempty,project_status"`
	}
	type kindForm struct {
		Kind string `binding:"omitempty,message_kind"`
	}
	type privacyForm struct {
		Privacy string `binding:"omitempty,privacy"`
	}

	assert.NoError(t, binding.Validator.ValidateStruct(&statusForm{Status: "archived"}))
	assert.NoError(t, binding.Validator.ValidateStruct(&statusForm{}))
	assert.Error(t, binding.Validator.ValidateStruct(&statusForm{Status: "deleted"}))

	assert.NoError(t, binding.Validator.ValidateStruct(&kindForm{Kind: "comment"}))
	assert.Error(t, binding.Validator.ValidateStruct(&kindForm{Kind: "shout"}))

	assert.NoError(t, binding.Validator.ValidateStruct(&privacyForm{Privacy: "private"}))
	assert.Error(t, binding.Validator.ValidateStruct(&privacyForm{Privacy: "friends"}))
}
