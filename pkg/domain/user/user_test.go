package user

import (
	"testing"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "9999999999", want: "+919999999999"},
		{in: "+919999999999", want: "+919999999999"},
		{in: "919999999999", want: "+919999999999"},
		{in: "09999999999", want: "+919999999999"},
		{in: "+91 99999-99999", want: "+919999999999"},
		{in: "12345", wantErr: true},
		{in: "", wantErr: true},
		{in: "+1 555 123 45678", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateHandle(t *testing.T) {
	h, err := GenerateHandle("Jefin")
	require.NoError(t, err)
	assert.Equal(t, "jefin@upi", h)

	h, err = GenerateHandle("  Anu  Mary ")
	require.NoError(t, err)
	assert.Equal(t, "anumary@upi", h)

	_, err = GenerateHandle("   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = GenerateHandle("a@b")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestNew(t *testing.T) {
	u, err := New(" Jefin ", "9999999999")
	require.NoError(t, err)
	assert.Equal(t, "Jefin", u.Name)
	assert.Equal(t, "+919999999999", u.Phone)
	assert.Equal(t, "jefin@upi", u.Handle)
	assert.NotEmpty(t, u.ID)

	_, err = New("Jefin", "1")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestIsHandle(t *testing.T) {
	assert.True(t, IsHandle("jefin@upi"))
	assert.False(t, IsHandle("+919999999999"))
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "babu@upi", NormalizeHandle(" Babu "))
	assert.Equal(t, "babu@upi", NormalizeHandle("babu @ UPI"))
	assert.Equal(t, "babu@okbank", NormalizeHandle("Babu@okbank"))
	assert.Equal(t, "", NormalizeHandle("  "))
}
