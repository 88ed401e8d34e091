package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/herdadmin/internal/models"
)

func TestIsValidMobile(t *testing.T) {
	assert.True(t, IsValidMobile("9876543210"))
	assert.False(t, IsValidMobile("987654321"))
	assert.False(t, IsValidMobile("98765432100"))
	assert.False(t, IsValidMobile("98765x3210"))
	assert.False(t, IsValidMobile(""))
}

func TestValidateUserRequest(t *testing.T) {
	ok := models.UserRequest{
		Mobile:          "9876543210",
		FirstName:       "Asha",
		LastName:        "Rao",
		ReferedByMobile: "9123456780",
		ReferedByName:   "Meera",
	}
	assert.NoError(t, ValidateStruct(ok))

	// mobile is optional on update
	ok.Mobile = ""
	assert.NoError(t, ValidateStruct(ok))

	err := ValidateStruct(models.UserRequest{Mobile: "123", ReferedByMobile: "456"})
	require.Error(t, err)

	verr, isValidation := err.(*Error)
	require.True(t, isValidation)
	assert.ElementsMatch(t, []FieldError{
		{Field: "mobile", Message: "mobile must be a 10 digit mobile number"},
		{Field: "first_name", Message: "first_name is required"},
		{Field: "last_name", Message: "last_name is required"},
		{Field: "refered_by_mobile", Message: "refered_by_mobile must be a 10 digit mobile number"},
		{Field: "refered_by_name", Message: "refered_by_name is required"},
	}, verr.Fields)
	assert.Contains(t, err.Error(), "first_name is required")
}

func TestRequireMobile(t *testing.T) {
	assert.NoError(t, RequireMobile("mobile", "9876543210"))
	err := RequireMobile("mobile", "")
	require.Error(t, err)
	assert.Equal(t, "mobile must be a 10 digit mobile number", err.Error())
}
